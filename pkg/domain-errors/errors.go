// Package domainerrors defines the coded error returned by every service in
// the module. A service returns either a value or a *Error whose Code tells
// the transport layer which kind of outcome occurred; callers branch on
// HasCode instead of matching message strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers. It is stable and safe to expose.
type Code string

const (
	// CodeValidation means the input failed field checks. Fields carries the
	// complete field -> messages mapping.
	CodeValidation Code = "validation_error"
	// CodeNotFound means a referenced entity does not exist. Entity names it.
	CodeNotFound Code = "not_found"
	// CodeEnrollmentRejected is a business-rule refusal: full course,
	// unpublished course, duplicate enrollment.
	CodeEnrollmentRejected Code = "enrollment_error"
	// CodeInvalidState is a status transition from a terminal or
	// mismatched state.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict is a uniqueness clash detected by persistence.
	CodeConflict Code = "conflict"
	// CodeBadRequest is a malformed request envelope (unparseable body, bad path id).
	CodeBadRequest Code = "bad_request"
	// CodeTimeout means the operation ran out of time. For writes the
	// outcome is unknown and must not be retried blindly.
	CodeTimeout Code = "timeout"
	// CodeInternal is any unclassified system failure.
	CodeInternal Code = "internal_error"
)

// Error is the tagged result for failed operations.
type Error struct {
	Code    Code
	Message string
	// Fields is set for CodeValidation.
	Fields map[string][]string
	// Entity is set for CodeNotFound ("course", "enrollment").
	Entity string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error with a human readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation builds a CodeValidation error carrying a copy of fields.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Fields:  cloneFields(fields),
	}
}

// NotFound builds a CodeNotFound error for the given entity kind.
func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found", Entity: entity}
}

// EnrollmentRejected builds a business-rule refusal with its user-facing message.
func EnrollmentRejected(message string) *Error {
	return &Error{Code: CodeEnrollmentRejected, Message: message}
}

// InvalidState builds a CodeInvalidState error.
func InvalidState(message string) *Error {
	return &Error{Code: CodeInvalidState, Message: message}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

func cloneFields(fields map[string][]string) map[string][]string {
	out := make(map[string][]string, len(fields))
	for k, v := range fields {
		out[k] = append([]string(nil), v...)
	}
	return out
}
