// Package validation collects field-level errors without stopping at the
// first failure, so one pass reports every problem with an input.
package validation

import (
	"strings"

	dErrors "campus/pkg/domain-errors"
)

// Accumulator maps field names to ordered error messages.
// The zero value is ready to use.
type Accumulator struct {
	errs map[string][]string
}

// Clear drops every recorded error.
func (a *Accumulator) Clear() {
	a.errs = nil
}

// Add appends message to the list for field.
func (a *Accumulator) Add(field, message string) {
	if a.errs == nil {
		a.errs = make(map[string][]string)
	}
	a.errs[field] = append(a.errs[field], message)
}

// Required records "<label> is required" when value is empty or blank.
func (a *Accumulator) Required(field, value, label string) {
	if strings.TrimSpace(value) == "" {
		a.Add(field, label+" is required")
	}
}

func (a *Accumulator) HasErrors() bool {
	return len(a.errs) > 0
}

// Errors returns a copy of the field -> messages mapping.
func (a *Accumulator) Errors() map[string][]string {
	out := make(map[string][]string, len(a.errs))
	for field, msgs := range a.errs {
		out[field] = append([]string(nil), msgs...)
	}
	return out
}

// Err returns a validation error carrying every field error, or nil.
func (a *Accumulator) Err() error {
	if !a.HasErrors() {
		return nil
	}
	return dErrors.Validation(a.errs)
}
