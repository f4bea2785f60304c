package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"campus/internal/course/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/requestcontext"
)

// Store is the course persistence the admin operations need.
type Store interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Course, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status, now time.Time) error
	UpdateDetails(ctx context.Context, course *models.Course, now time.Time) error
	Delete(ctx context.Context, id int64) error
}

const (
	MsgCourseHasEnrollments = "Course has enrollments and cannot be deleted"
	msgArchived             = "archived course cannot be changed"
)

// Service manages the course catalogue. Enrollment counters are owned by
// the enrollment service; nothing here writes current_enrolled.
type Service struct {
	store  Store
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("campus/internal/course/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCourse validates req and stores a new draft course.
func (s *Service) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "course.CreateCourse")
	defer span.End()

	if req == nil {
		req = &models.CreateCourseRequest{}
	}
	req.Normalize()
	course := models.NewCourse(req.CourseCode, req.Title, req.Description, req.Category, req.MaxStudents, requestcontext.Now(ctx))
	if !course.Validate() {
		return nil, course.ValidationErr()
	}

	if err := s.store.Create(ctx, course); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Validation(map[string][]string{
				"course_code": {"Course code already exists"},
			})
		}
		return nil, s.internal(ctx, span, err, "failed to create course")
	}

	span.SetAttributes(attribute.Int64("course.id", course.ID))
	s.logAudit(ctx, "course_created", "course_id", course.ID, "course_code", course.CourseCode)
	return course, nil
}

func (s *Service) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "course.GetCourse",
		trace.WithAttributes(attribute.Int64("course.id", id)))
	defer span.End()

	return s.find(ctx, span, id)
}

// ListCourses returns courses ordered by id. An empty filter matches all.
func (s *Service) ListCourses(ctx context.Context, filter models.ListFilter) ([]*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "course.ListCourses")
	defer span.End()

	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, dErrors.Validation(map[string][]string{
				"status": {"Status must be one of draft, published, archived"},
			})
		}
	}
	courses, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, span, err, "failed to list courses")
	}
	return courses, nil
}

// UpdateCourse replaces a course's descriptive fields and capacity. The
// enrolled counter is never written, and capacity cannot drop below it.
func (s *Service) UpdateCourse(ctx context.Context, id int64, req *models.UpdateCourseRequest) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, "course.UpdateCourse",
		trace.WithAttributes(attribute.Int64("course.id", id)))
	defer span.End()

	if req == nil {
		req = &models.UpdateCourseRequest{}
	}
	req.Normalize()

	course, err := s.find(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if course.Status.IsTerminal() {
		return nil, dErrors.InvalidState(msgArchived)
	}
	if !course.ApplyUpdate(req) {
		return nil, course.ValidationErr()
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateDetails(ctx, course, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.NotFound("course")
		case errors.Is(err, sentinel.ErrInvalidState):
			// a seat was taken after the course was loaded
			return nil, dErrors.Validation(map[string][]string{
				"max_students": {models.MsgCapacityBelowEnrolled},
			})
		}
		return nil, s.internal(ctx, span, err, "failed to update course")
	}
	course.UpdatedAt = &now

	s.logAudit(ctx, "course_updated",
		"course_id", id,
		"max_students", course.MaxStudents,
	)
	return course, nil
}

// DeleteCourse removes a course holding no seats. Courses with active or
// completed enrollments are refused.
func (s *Service) DeleteCourse(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "course.DeleteCourse",
		trace.WithAttributes(attribute.Int64("course.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.NotFound("course")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.InvalidState(MsgCourseHasEnrollments)
		}
		return s.internal(ctx, span, err, "failed to delete course")
	}

	s.logAudit(ctx, "course_deleted", "course_id", id)
	return nil
}

// Publish opens a course for enrollment. Publishing a published course is a
// no-op.
func (s *Service) Publish(ctx context.Context, id int64) (*models.Course, error) {
	return s.setStatus(ctx, "course.Publish", id, (*models.Course).Publish)
}

// Unpublish returns a course to draft. Existing enrollments are unaffected.
func (s *Service) Unpublish(ctx context.Context, id int64) (*models.Course, error) {
	return s.setStatus(ctx, "course.Unpublish", id, (*models.Course).Unpublish)
}

func (s *Service) setStatus(ctx context.Context, op string, id int64, apply func(*models.Course)) (*models.Course, error) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int64("course.id", id)))
	defer span.End()

	course, err := s.find(ctx, span, id)
	if err != nil {
		return nil, err
	}
	if course.Status.IsTerminal() {
		return nil, dErrors.InvalidState(msgArchived)
	}

	before := course.Status
	apply(course)
	if course.Status == before {
		return course, nil
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, id, course.Status, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("course")
		}
		return nil, s.internal(ctx, span, err, "failed to update course status")
	}
	course.UpdatedAt = &now

	s.logAudit(ctx, "course_status_changed",
		"course_id", id,
		"from", before.String(),
		"to", course.Status.String(),
	)
	return course, nil
}

func (s *Service) find(ctx context.Context, span trace.Span, id int64) (*models.Course, error) {
	course, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("course")
		}
		return nil, s.internal(ctx, span, err, "failed to load course")
	}
	return course, nil
}

// internal codes a persistence failure. The driver cancelling a statement
// after ctx ended is a timeout even when err does not wrap the context error.
func (s *Service) internal(ctx context.Context, span trace.Span, err error, message string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrTimeout) || ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "persistence timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
