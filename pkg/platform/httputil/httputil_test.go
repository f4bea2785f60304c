package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "campus/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var body Envelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		body := decode(t, w)
		if body.Message != "internal error" {
			t.Fatalf("expected generic message, got %q", body.Message)
		}
		if body.Success {
			t.Fatalf("expected success=false")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("socket closed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("validation error carries field map", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Validation(map[string][]string{"student_id": {"Student ID is required"}}))

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
		body := decode(t, w)
		if got := body.Errors["student_id"]; len(got) != 1 || got[0] != "Student ID is required" {
			t.Fatalf("unexpected field errors: %v", body.Errors)
		}
	})

	t.Run("not found names the entity", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.NotFound("enrollment"))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
		if body := decode(t, w); body.Message != "Enrollment not found" {
			t.Fatalf("unexpected message %q", body.Message)
		}
	})

	t.Run("business errors surface their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.EnrollmentRejected("Course is full"))

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
		body := decode(t, w)
		if body.Message != "Course is full" || body.Code != "enrollment_error" {
			t.Fatalf("unexpected body %+v", body)
		}
	})
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeInvalidState: http.StatusConflict,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeBadRequest:   http.StatusBadRequest,
		dErrors.CodeTimeout:      http.StatusGatewayTimeout,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
