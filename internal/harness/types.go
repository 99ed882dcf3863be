package harness

import "fmt"

// Result is the outcome of a scenario execution.
type Result struct {
	Scenario string `json:"scenario"`

	// Pass is true if every case passed.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Tree string `json:"tree"`
	Pass bool   `json:"pass"`

	// Matched holds the keys the in-memory predicate kept.
	Matched []string `json:"matched"`

	// SQLMatched holds the keys the SQL translation returned, when checked.
	SQLMatched []string `json:"sql_matched,omitempty"`

	// Error is the compile error, if any.
	Error string `json:"error,omitempty"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{Scenario: scenario, Pass: true, Cases: []CaseResult{}}
}

// AddCase records a case result and fails the scenario if the case failed.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if !c.Pass {
		r.Pass = false
	}
}

// Failures returns the number of failed cases.
func (r *Result) Failures() int {
	n := 0
	for _, c := range r.Cases {
		if !c.Pass {
			n++
		}
	}
	return n
}

// addError adds a failed expectation and marks the case as failed.
func (c *CaseResult) addError(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
	c.Pass = false
}
