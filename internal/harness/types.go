package harness

import (
	"github.com/roach88/onvoc/internal/journal"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Journal contains every journaled flow line in order.
	Journal []journal.Entry `json:"journal"`

	// Tree maps every file of both trees (seed-style keys) to its content
	// after the flow.
	Tree map[string]string `json:"tree"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Journal: []journal.Entry{},
		Tree:    make(map[string]string),
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
