package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/roach88/qtree/internal/querytree"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure (a definition has error-severity issues)
	ExitCommandError = 2 // Command error (bad flags, missing files, compile errors, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeInput      = "E002" // Bad flag value or unreadable input
	ErrCodeConfig     = "E003" // Invalid qtree configuration
	ErrCodeDatabase   = "E004" // Database open or query failed
	ErrCodeDictionary = "E005" // Data dictionary load or lookup failed

	ErrCodeDefinition = "E101" // Malformed query tree definition
	ErrCodeNotFound   = "E102" // Unknown query tree name
	ErrCodeBinding    = "E103" // Parameter value does not parse
	ErrCodeResolution = "E104" // Property does not exist on the entity
	ErrCodeInvalid    = "E110" // Definition failed validation
	ErrCodeFailed     = "E111" // Scenario failed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// NewTraceID returns a time-ordered id for correlating one CLI invocation.
func NewTraceID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	TraceID   string // Stamped on every JSON response
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string      `json:"status"`             // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`     // success payload
	Error   *CLIError   `json:"error,omitempty"`    // error details
	TraceID string      `json:"trace_id,omitempty"` // invocation correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E101", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// encode writes an indented response stamped with the trace id.
func (f *OutputFormatter) encode(resp CLIResponse) error {
	resp.TraceID = f.TraceID
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ErrorDetails is the JSON detail payload for query tree errors.
type ErrorDetails struct {
	Kind  string `json:"kind"`
	Code  string `json:"code,omitempty"`
	Tree  string `json:"tree,omitempty"`
	Node  string `json:"node,omitempty"`
	Param string `json:"param,omitempty"`
	Pos   string `json:"pos,omitempty"`
}

// errorCode maps a query tree error to its CLI error code.
func errorCode(err error) string {
	switch querytree.KindOf(err) {
	case querytree.KindConfig:
		return ErrCodeDefinition
	case querytree.KindNotFound:
		return ErrCodeNotFound
	case querytree.KindBinding:
		return ErrCodeBinding
	case querytree.KindResolution:
		return ErrCodeResolution
	default:
		return ErrCodeGeneric
	}
}

// errorDetails extracts context from a query tree error, or returns nil.
func errorDetails(err error) interface{} {
	var qe *querytree.Error
	if !errors.As(err, &qe) {
		return nil
	}
	return ErrorDetails{
		Kind:  string(qe.Kind),
		Code:  qe.Code,
		Tree:  qe.Tree,
		Node:  qe.Node,
		Param: qe.Param,
		Pos:   qe.Pos,
	}
}

// fail reports err and returns a command error. An empty code is derived
// from the error kind.
func fail(f *OutputFormatter, code string, err error) error {
	if code == "" {
		code = errorCode(err)
	}
	_ = f.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(ExitCommandError, code, err)
}
