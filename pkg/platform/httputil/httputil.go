// Package httputil renders service results into the JSON envelope used by
// every endpoint:
//
//	{"success": true, "message": "...", "data": {...}}
//	{"success": false, "message": "...", "errors": {"field": ["..."]}}
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "campus/pkg/domain-errors"
)

// Envelope is the response body shape.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope around data.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError maps a domain error to its HTTP status and writes the error
// envelope. Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		de = dErrors.New(dErrors.CodeInternal, "internal error")
	}

	body := Envelope{Success: false, Code: string(de.Code), Message: de.Message}
	switch de.Code {
	case dErrors.CodeValidation:
		body.Errors = de.Fields
	case dErrors.CodeNotFound:
		if de.Entity != "" {
			body.Message = capitalize(de.Entity) + " not found"
		}
	case dErrors.CodeInternal:
		body.Message = "internal error"
	case dErrors.CodeTimeout:
		body.Message = "request timed out; outcome unknown"
	}
	WriteJSON(w, StatusFor(de.Code), body)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeEnrollmentRejected:
		return http.StatusUnprocessableEntity
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidState, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
