package fielderr

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Issue is a soft, field-scoped validation problem. Unlike the hard
// error types, issues do not abort the owning operation; they are
// collected into a Report and surfaced together.
type Issue struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface
func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// NewIssue creates a soft field_invalid issue
func NewIssue(field, message string) *Issue {
	return &Issue{Field: field, Kind: KindFieldInvalid, Message: message}
}

// Report aggregates soft issues across the fields of one entity
// operation. Safe for concurrent use; fields of one record may be
// processed by concurrent goroutines.
type Report struct {
	mu     sync.Mutex
	issues []Issue
}

// NewReport creates an empty report
func NewReport() *Report {
	return &Report{}
}

// Add appends an issue to the report
func (r *Report) Add(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, issue)
}

// Issues returns a copy of the collected issues
func (r *Report) Issues() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// HasIssues returns true if any soft issue was collected
func (r *Report) HasIssues() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issues) > 0
}

// Count returns the number of collected issues
func (r *Report) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issues)
}

// Error implements the error interface
func (r *Report) Error() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.issues) == 0 {
		return "validation failed"
	}
	if len(r.issues) == 1 {
		return fmt.Sprintf("validation failed: %s", r.issues[0].Error())
	}

	messages := make([]string, 0, len(r.issues))
	for _, issue := range r.issues {
		messages = append(messages, "  - "+issue.Error())
	}
	return fmt.Sprintf("validation failed:\n%s", strings.Join(messages, "\n"))
}

// MarshalJSON implements json.Marshaler for the API boundary shape
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return json.Marshal(struct {
		Error  string  `json:"error"`
		Issues []Issue `json:"issues"`
	}{
		Error:  "validation_failed",
		Issues: r.issues,
	})
}
