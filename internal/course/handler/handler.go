package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campus/internal/course/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/httputil"
	strutil "campus/pkg/platform/strings"
	"campus/pkg/requestcontext"
)

// Service defines the course catalogue operations exposed over HTTP.
type Service interface {
	CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error)
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListCourses(ctx context.Context, filter models.ListFilter) ([]*models.Course, error)
	UpdateCourse(ctx context.Context, id int64, req *models.UpdateCourseRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id int64) error
	Publish(ctx context.Context, id int64) (*models.Course, error)
	Unpublish(ctx context.Context, id int64) (*models.Course, error)
}

// Handler handles course endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the course routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{courseID}", h.handleGet)
		r.Put("/{courseID}", h.handleUpdate)
		r.Delete("/{courseID}", h.handleDelete)
		r.Put("/{courseID}/publish", h.handlePublish)
		r.Put("/{courseID}/unpublish", h.handleUnpublish)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create course request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	course, err := h.service.CreateCourse(ctx, &req)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "Course created successfully", course)
}

// handleList accepts ?status=draft,published to filter by status.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter models.ListFilter
	for _, status := range strutil.SplitList(r.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, models.Status(status))
	}

	courses, err := h.service.ListCourses(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Courses retrieved successfully", courses)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withCourse(w, r, h.service.GetCourse, http.StatusOK, "Course retrieved successfully")
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := courseID(w, r)
	if !ok {
		return
	}
	var req models.UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update course request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	course, err := h.service.UpdateCourse(ctx, id, &req)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Course updated successfully", course)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := courseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(ctx, id); err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "Course deleted successfully", nil)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.withCourse(w, r, h.service.Publish, http.StatusOK, "Course published successfully")
}

func (h *Handler) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	h.withCourse(w, r, h.service.Unpublish, http.StatusOK, "Course unpublished successfully")
}

func (h *Handler) withCourse(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id int64) (*models.Course, error),
	status int,
	message string,
) {
	ctx := r.Context()
	id, ok := courseID(w, r)
	if !ok {
		return
	}

	course, err := op(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	httputil.WriteSuccess(w, status, message, course)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		h.logger.ErrorContext(ctx, "course operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func courseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid course id"))
		return 0, false
	}
	return id, true
}
