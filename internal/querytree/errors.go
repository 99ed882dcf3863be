package querytree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes query tree errors. None of them are retryable.
type ErrorKind string

const (
	// KindConfig indicates a malformed definition: bad document structure,
	// a non-combinator root, an unknown operator or data type, an
	// incompatible data type, or a rejected opaque leaf.
	KindConfig ErrorKind = "CONFIG"

	// KindNotFound indicates a requested tree name does not exist.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindBinding indicates a runtime parameter value cannot be parsed
	// into the leaf's declared data type.
	KindBinding ErrorKind = "BINDING"

	// KindResolution indicates a property path does not exist on the
	// entity type.
	KindResolution ErrorKind = "RESOLUTION"
)

// Error codes for KindConfig errors.
const (
	CodeDocument      = "document"
	CodeStructure     = "structure"
	CodeRootKind      = "root_kind"
	CodeOperator      = "operator"
	CodeDataType      = "data_type"
	CodeTypeMismatch  = "type_mismatch"
	CodeOpaqueLeaf    = "opaque_leaf"
	CodeDuplicateName = "duplicate_name"
)

// Error is the error type returned by loading, compiling and translating
// query trees.
type Error struct {
	Kind ErrorKind

	// Code refines Kind, e.g. CodeTypeMismatch for KindConfig.
	Code string

	Message string

	// Tree is the definition name, if known.
	Tree string

	// Node is the path of the offending node from the root,
	// e.g. "root/nodes[2]/nodes[0]".
	Node string

	// Param is the runtime parameter name, if relevant.
	Param string

	// Pos is the source position of the node, if known.
	Pos string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos != "" {
		b.WriteString(e.Pos)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString("[" + e.Code + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	var ctx []string
	if e.Tree != "" {
		ctx = append(ctx, "tree="+e.Tree)
	}
	if e.Node != "" {
		ctx = append(ctx, "node="+e.Node)
	}
	if e.Param != "" {
		ctx = append(ctx, "param="+e.Param)
	}
	if len(ctx) > 0 {
		b.WriteString(" (" + strings.Join(ctx, ", ") + ")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigError creates a KindConfig error.
func NewConfigError(code, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError creates a KindNotFound error for a tree name.
func NewNotFoundError(tree string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("query tree %q not found", tree),
		Tree:    tree,
	}
}

// NewBindingError creates a KindBinding error for a parameter.
func NewBindingError(param, raw, dataType string, err error) *Error {
	return &Error{
		Kind:    KindBinding,
		Message: fmt.Sprintf("cannot bind %q as %s", raw, dataType),
		Param:   param,
		Err:     err,
	}
}

// NewResolutionError creates a KindResolution error for a property.
func NewResolutionError(prop Property, entity string, err error) *Error {
	return &Error{
		Kind:    KindResolution,
		Message: fmt.Sprintf("cannot resolve property %s on %s", prop, entity),
		Err:     err,
	}
}

// At fills in location context that is not already set and returns e.
func (e *Error) At(tree, node, pos string) *Error {
	if e.Tree == "" {
		e.Tree = tree
	}
	if e.Node == "" {
		e.Node = node
	}
	if e.Pos == "" {
		e.Pos = pos
	}
	return e
}

// WithParam sets the parameter name and returns e.
func (e *Error) WithParam(param string) *Error {
	e.Param = param
	return e
}

// KindOf returns the ErrorKind of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

// IsConfigError returns true if err is a configuration error.
func IsConfigError(err error) bool { return KindOf(err) == KindConfig }

// IsNotFound returns true if err reports a missing query tree.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsBindingError returns true if err reports an unparsable parameter.
func IsBindingError(err error) bool { return KindOf(err) == KindBinding }

// IsResolutionError returns true if err reports an unknown property.
func IsResolutionError(err error) bool { return KindOf(err) == KindResolution }
