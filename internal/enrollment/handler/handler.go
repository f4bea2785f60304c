package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campus/internal/enrollment/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/httputil"
	"campus/pkg/requestcontext"
)

// Service defines the enrollment operations exposed over HTTP.
type Service interface {
	EnrollStudent(ctx context.Context, req *models.EnrollRequest) (*models.Enrollment, error)
	GetStudentEnrollments(ctx context.Context, studentID int64) ([]*models.Enrollment, error)
	CompleteEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error)
	CancelEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error)
}

// Handler handles enrollment endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the enrollment routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/enrollments", h.handleEnroll)
	r.Get("/students/{studentID}/enrollments", h.handleStudentEnrollments)
	r.Put("/enrollments/{enrollmentID}/complete", h.handleComplete)
	r.Put("/enrollments/{enrollmentID}/cancel", h.handleCancel)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var input map[string]any
	if err := dec.Decode(&input); err != nil {
		h.logger.WarnContext(ctx, "invalid enroll request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := models.ParseEnrollInput(input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	enrollment, err := h.service.EnrollStudent(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "enroll", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Enrollment created successfully", enrollment)
}

func (h *Handler) handleStudentEnrollments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID, err := pathID(r, "studentID", "student")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	list, err := h.service.GetStudentEnrollments(ctx, studentID)
	if err != nil {
		h.writeServiceError(ctx, w, "list_student_enrollments", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollments retrieved successfully", list)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "enrollmentID", "enrollment")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	enrollment, err := h.service.CompleteEnrollment(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "complete", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollment completed successfully", enrollment)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "enrollmentID", "enrollment")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	enrollment, err := h.service.CancelEnrollment(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "cancel", err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Enrollment cancelled successfully", enrollment)
}

// writeServiceError logs system failures at error level. Rejections are
// expected outcomes and only reach the client.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "enrollment operation failed",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request, param, entity string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+entity+" id")
	}
	return id, nil
}
