package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	coursemodels "campus/internal/course/models"
	"campus/internal/enrollment/metrics"
	"campus/internal/enrollment/models"
	"campus/internal/outbox"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/requestcontext"
)

// User-facing rejection messages.
const (
	MsgCourseFull       = "Course is full"
	MsgCourseNotOpen    = "Course is not open for enrollment"
	MsgAlreadyEnrolled  = "Already enrolled"
	msgNoLongerActive   = "enrollment is no longer active"
	msgOutcomeUnknown   = "persistence timed out; outcome unknown"
	eventTypeEnrolled   = "enrollment.created"
	eventTypeCompleted  = "enrollment.completed"
	eventTypeCancelled  = "enrollment.cancelled"
	tracerName          = "campus/internal/enrollment/service"
)

// CourseLedger is the course side of the transaction. The two counter
// methods are atomic conditional updates; they report whether a row changed.
type CourseLedger interface {
	FindByID(ctx context.Context, id int64) (*coursemodels.Course, error)
	IncrementEnrolledIfAvailable(ctx context.Context, id int64, now time.Time) (bool, error)
	DecrementEnrolled(ctx context.Context, id int64, now time.Time) (bool, error)
}

type EnrollmentStore interface {
	Create(ctx context.Context, e *models.Enrollment) error
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindOpenByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error)
	TransitionFromActive(ctx context.Context, e *models.Enrollment) (bool, error)
}

type OutboxAppender interface {
	Append(ctx context.Context, e outbox.Event) error
}

// Stores are the stores bound to one transaction.
type Stores struct {
	Courses     CourseLedger
	Enrollments EnrollmentStore
	Outbox      OutboxAppender
}

// StoreTx provides the transactional boundary for enrollment mutations.
// Either every write made through the Stores handed to fn is applied, or none.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// StudentCache caches GetStudentEnrollments results.
//
// Every InvalidateStudent advances the student's generation. A fill passes
// the generation it read before loading from the store and is dropped when
// an invalidation happened in between, so a list read before a commit can
// never be stored after that commit's invalidation.
type StudentCache interface {
	StudentEnrollments(ctx context.Context, studentID int64) ([]*models.Enrollment, bool, error)
	Generation(ctx context.Context, studentID int64) (int64, error)
	SetStudentEnrollments(ctx context.Context, studentID int64, generation int64, list []*models.Enrollment) (bool, error)
	InvalidateStudent(ctx context.Context, studentID int64) error
}

// Service orchestrates enrollment lifecycle operations. Each public method
// is one logical transaction.
type Service struct {
	tx          StoreTx
	enrollments EnrollmentStore
	cache       StudentCache
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	readTimeout time.Duration
	loads       singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c StudentCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithReadTimeout bounds the shared store load behind GetStudentEnrollments.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// New constructs a Service. enrollments serves reads outside transactions.
func New(tx StoreTx, enrollments EnrollmentStore, opts ...Option) *Service {
	s := &Service{
		tx:          tx,
		enrollments: enrollments,
		logger:      slog.New(slog.DiscardHandler),
		tracer:      otel.Tracer(tracerName),
		readTimeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnrollStudent enrolls req.StudentID in req.CourseID.
//
// The course is loaded and checked, then a seat is taken with a conditional
// increment. If another request took the last seat between the check and
// the increment, the increment affects no row and the enrollment fails with
// "Course is full".
func (s *Service) EnrollStudent(ctx context.Context, req *models.EnrollRequest) (*models.Enrollment, error) {
	start := time.Now()
	defer s.observe("enroll", start)
	ctx, span := s.tracer.Start(ctx, "enrollment.EnrollStudent")
	defer span.End()

	if req == nil {
		req = &models.EnrollRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, s.finish(span, err)
	}
	span.SetAttributes(
		attribute.Int64("student.id", req.StudentID),
		attribute.Int64("course.id", req.CourseID),
	)

	now := requestcontext.Now(ctx)
	var created *models.Enrollment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		course, err := stores.Courses.FindByID(ctx, req.CourseID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound("course")
			}
			return storeError(ctx, err, "failed to load course")
		}

		if !course.CanEnroll(course.CurrentEnrolled) {
			if !course.IsPublished() {
				return s.reject(metrics.ReasonNotOpen, MsgCourseNotOpen)
			}
			return s.reject(metrics.ReasonFull, MsgCourseFull)
		}

		if _, err := stores.Enrollments.FindOpenByStudentAndCourse(ctx, req.StudentID, req.CourseID); err == nil {
			return s.reject(metrics.ReasonDuplicate, MsgAlreadyEnrolled)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return storeError(ctx, err, "failed to check existing enrollment")
		}

		taken, err := stores.Courses.IncrementEnrolledIfAvailable(ctx, course.ID, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.NotFound("course")
			}
			return storeError(ctx, err, "failed to reserve seat")
		}
		if !taken {
			if s.metrics != nil {
				s.metrics.CapacityConflicts.Inc()
			}
			return s.reject(metrics.ReasonFull, MsgCourseFull)
		}

		enrollment, err := models.NewEnrollment(req.StudentID, req.CourseID, now)
		if err != nil {
			return err
		}
		if err := stores.Enrollments.Create(ctx, enrollment); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return s.reject(metrics.ReasonDuplicate, MsgAlreadyEnrolled)
			}
			return storeError(ctx, err, "failed to create enrollment")
		}

		if err := appendEvent(ctx, stores.Outbox, eventTypeEnrolled, enrollment, now); err != nil {
			return err
		}
		created = enrollment
		return nil
	})
	if err != nil {
		return nil, s.finish(span, classify(ctx, err))
	}

	s.invalidate(ctx, created.StudentID)
	if s.metrics != nil {
		s.metrics.Enrolled.Inc()
	}
	s.logAudit(ctx, "enrollment_created",
		"enrollment_id", created.ID,
		"student_id", created.StudentID,
		"course_id", created.CourseID,
	)
	span.SetAttributes(attribute.Int64("enrollment.id", created.ID))
	return created, nil
}

// GetStudentEnrollments lists a student's enrollments, newest first.
func (s *Service) GetStudentEnrollments(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	start := time.Now()
	defer s.observe("list_student", start)
	ctx, span := s.tracer.Start(ctx, "enrollment.GetStudentEnrollments",
		trace.WithAttributes(attribute.Int64("student.id", studentID)))
	defer span.End()

	if studentID <= 0 {
		return nil, s.finish(span, dErrors.Validation(map[string][]string{
			"student_id": {"Student ID must be a positive integer"},
		}))
	}

	if s.cache != nil {
		list, hit, err := s.cache.StudentEnrollments(ctx, studentID)
		if err != nil {
			s.logger.WarnContext(ctx, "student enrollment cache read failed",
				"student_id", studentID, "error", err.Error())
		}
		if s.metrics != nil && err == nil {
			s.metrics.IncrementCacheLookup(hit)
		}
		if hit {
			return list, nil
		}
	}

	// The load is shared by every coalesced caller, so it must not end when
	// the caller that started it goes away.
	v, err, _ := s.loads.Do(strconv.FormatInt(studentID, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.readTimeout)
		defer cancel()
		return s.loadStudentEnrollments(loadCtx, studentID)
	})
	if err != nil {
		return nil, s.finish(span, classify(ctx, err))
	}

	shared := v.([]*models.Enrollment)
	out := make([]*models.Enrollment, len(shared))
	for i, e := range shared {
		out[i] = e.Clone()
	}
	return out, nil
}

// loadStudentEnrollments reads the list from the store and fills the cache
// if no invalidation happened since the generation was read.
func (s *Service) loadStudentEnrollments(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	fill := s.cache != nil
	var generation int64
	if fill {
		g, err := s.cache.Generation(ctx, studentID)
		if err != nil {
			s.logger.WarnContext(ctx, "student enrollment cache generation read failed",
				"student_id", studentID, "error", err.Error())
			fill = false
		}
		generation = g
	}

	list, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeError(ctx, err, "failed to list enrollments")
	}

	if fill {
		stored, err := s.cache.SetStudentEnrollments(ctx, studentID, generation, list)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "student enrollment cache write failed",
				"student_id", studentID, "error", err.Error())
		case !stored:
			s.logger.DebugContext(ctx, "student enrollment cache fill dropped after invalidation",
				"student_id", studentID)
		}
	}
	return list, nil
}

// CompleteEnrollment marks an active enrollment completed.
func (s *Service) CompleteEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	start := time.Now()
	defer s.observe("complete", start)
	ctx, span := s.tracer.Start(ctx, "enrollment.CompleteEnrollment",
		trace.WithAttributes(attribute.Int64("enrollment.id", enrollmentID)))
	defer span.End()

	now := requestcontext.Now(ctx)
	var completed *models.Enrollment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		enrollment, err := transition(ctx, stores, enrollmentID, func(e *models.Enrollment) error {
			return e.Complete(now)
		})
		if err != nil {
			return err
		}
		if err := appendEvent(ctx, stores.Outbox, eventTypeCompleted, enrollment, now); err != nil {
			return err
		}
		completed = enrollment
		return nil
	})
	if err != nil {
		return nil, s.finish(span, classify(ctx, err))
	}

	s.invalidate(ctx, completed.StudentID)
	if s.metrics != nil {
		s.metrics.Completed.Inc()
	}
	s.logAudit(ctx, "enrollment_completed",
		"enrollment_id", completed.ID,
		"student_id", completed.StudentID,
		"course_id", completed.CourseID,
	)
	return completed, nil
}

// CancelEnrollment cancels an active enrollment and releases its seat in the
// same transaction.
func (s *Service) CancelEnrollment(ctx context.Context, enrollmentID int64) (*models.Enrollment, error) {
	start := time.Now()
	defer s.observe("cancel", start)
	ctx, span := s.tracer.Start(ctx, "enrollment.CancelEnrollment",
		trace.WithAttributes(attribute.Int64("enrollment.id", enrollmentID)))
	defer span.End()

	now := requestcontext.Now(ctx)
	var cancelled *models.Enrollment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, stores Stores) error {
		enrollment, err := transition(ctx, stores, enrollmentID, func(e *models.Enrollment) error {
			return e.Cancel(now)
		})
		if err != nil {
			return err
		}

		released, err := stores.Courses.DecrementEnrolled(ctx, enrollment.CourseID, now)
		if err != nil {
			return storeError(ctx, err, "failed to release seat")
		}
		if !released {
			s.logger.WarnContext(ctx, "course enrolled counter already zero on cancel",
				"course_id", enrollment.CourseID,
				"enrollment_id", enrollment.ID,
			)
		}

		if err := appendEvent(ctx, stores.Outbox, eventTypeCancelled, enrollment, now); err != nil {
			return err
		}
		cancelled = enrollment
		return nil
	})
	if err != nil {
		return nil, s.finish(span, classify(ctx, err))
	}

	s.invalidate(ctx, cancelled.StudentID)
	if s.metrics != nil {
		s.metrics.Cancelled.Inc()
	}
	s.logAudit(ctx, "enrollment_cancelled",
		"enrollment_id", cancelled.ID,
		"student_id", cancelled.StudentID,
		"course_id", cancelled.CourseID,
	)
	return cancelled, nil
}

// transition loads an enrollment, applies a terminal transition in memory,
// and persists it only if the stored row is still active.
func transition(ctx context.Context, stores Stores, id int64, apply func(*models.Enrollment) error) (*models.Enrollment, error) {
	if id <= 0 {
		return nil, dErrors.NotFound("enrollment")
	}
	enrollment, err := stores.Enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("enrollment")
		}
		return nil, storeError(ctx, err, "failed to load enrollment")
	}
	if err := apply(enrollment); err != nil {
		return nil, err
	}

	applied, err := stores.Enrollments.TransitionFromActive(ctx, enrollment)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("enrollment")
		}
		return nil, storeError(ctx, err, "failed to update enrollment")
	}
	if !applied {
		return nil, dErrors.InvalidState(msgNoLongerActive)
	}
	return enrollment, nil
}

// EnrollmentEvent is the outbox payload for lifecycle events.
type EnrollmentEvent struct {
	EnrollmentID int64         `json:"enrollment_id"`
	StudentID    int64         `json:"student_id"`
	CourseID     int64         `json:"course_id"`
	Status       models.Status `json:"status"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

func appendEvent(ctx context.Context, appender OutboxAppender, eventType string, e *models.Enrollment, now time.Time) error {
	if appender == nil {
		return nil
	}
	event, err := outbox.NewEvent(eventType, e.ID, EnrollmentEvent{
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		CourseID:     e.CourseID,
		Status:       e.Status,
		OccurredAt:   now,
	}, now)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build enrollment event")
	}
	if err := appender.Append(ctx, event); err != nil {
		return storeError(ctx, err, "failed to record enrollment event")
	}
	return nil
}

func (s *Service) reject(reason, message string) error {
	if s.metrics != nil {
		s.metrics.IncrementRejected(reason)
	}
	return dErrors.EnrollmentRejected(message)
}

// storeError wraps a persistence failure. A deadline means the write may or
// may not have landed; it is surfaced as a timeout so callers do not retry
// an increment blindly. A statement cancelled by the driver after the
// context ended does not wrap the context error, so ctx is checked too.
func storeError(ctx context.Context, err error, message string) error {
	if isTimeout(ctx, err) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msgOutcomeUnknown)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sentinel.ErrTimeout) ||
		ctx.Err() != nil
}

// classify makes sure every error leaving the service is coded.
func classify(ctx context.Context, err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return storeError(ctx, err, "enrollment transaction failed")
}

// finish records err on the span. Business outcomes are attributes; only
// system failures mark the span as errored.
func (s *Service) finish(span trace.Span, err error) error {
	code := dErrors.CodeOf(err)
	span.SetAttributes(attribute.String("enrollment.outcome", string(code)))
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Service) invalidate(ctx context.Context, studentID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.WarnContext(ctx, "student enrollment cache invalidation failed",
			"student_id", studentID, "error", err.Error())
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
