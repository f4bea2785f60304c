package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	coursemodels "campus/internal/course/models"
	coursestore "campus/internal/course/store"
	"campus/internal/enrollment/metrics"
	"campus/internal/enrollment/models"
	enrollmentstore "campus/internal/enrollment/store"
	"campus/internal/outbox"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/requestcontext"
)

type EnrollmentServiceSuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	courses     *coursestore.InMemory
	enrollments *enrollmentstore.InMemory
	events      *outbox.InMemoryStore
	metrics     *metrics.Metrics
	service     *Service
}

func TestEnrollmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceSuite))
}

func (s *EnrollmentServiceSuite) SetupTest() {
	s.now = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.courses = coursestore.NewInMemory()
	s.enrollments = enrollmentstore.NewInMemory()
	s.events = outbox.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(
		NewInMemoryTx(s.courses, s.enrollments, s.events),
		s.enrollments,
		WithMetrics(s.metrics),
	)
}

func (s *EnrollmentServiceSuite) createCourse(code string, maxStudents int, published bool) *coursemodels.Course {
	c := coursemodels.NewCourse(code, "Course "+code, "", "General", maxStudents, s.now)
	if published {
		c.Publish()
	}
	s.Require().NoError(s.courses.Create(s.ctx, c))
	return c
}

func (s *EnrollmentServiceSuite) enrolled(courseID int64) int {
	c, err := s.courses.FindByID(s.ctx, courseID)
	s.Require().NoError(err)
	return c.CurrentEnrolled
}

func (s *EnrollmentServiceSuite) enroll(studentID, courseID int64) (*models.Enrollment, error) {
	return s.service.EnrollStudent(s.ctx, &models.EnrollRequest{StudentID: studentID, CourseID: courseID})
}

func assertRejected(t *testing.T, err error, message string) {
	t.Helper()
	de, ok := dErrors.As(err)
	require.True(t, ok, "expected coded error, got %v", err)
	assert.Equal(t, dErrors.CodeEnrollmentRejected, de.Code)
	assert.Equal(t, message, de.Message)
}

func (s *EnrollmentServiceSuite) TestEnrollUntilFull() {
	course := s.createCourse("CS-101", 2, true)

	first, err := s.enroll(1, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, first.Status)
	s.Equal(s.now, first.EnrolledAt)
	s.Equal(1, s.enrolled(course.ID))

	_, err = s.enroll(2, course.ID)
	s.Require().NoError(err)
	s.Equal(2, s.enrolled(course.ID))

	_, err = s.enroll(3, course.ID)
	assertRejected(s.T(), err, MsgCourseFull)
	s.Equal(2, s.enrolled(course.ID))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(metrics.ReasonFull)))
	s.Equal(float64(2), testutil.ToFloat64(s.metrics.Enrolled))
}

func (s *EnrollmentServiceSuite) TestCancelReleasesSeatOnce() {
	course := s.createCourse("CS-102", 2, true)
	e, err := s.enroll(1, course.ID)
	s.Require().NoError(err)

	cancelled, err := s.service.CancelEnrollment(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)
	s.Require().NotNil(cancelled.CancelledAt)
	s.Equal(0, s.enrolled(course.ID))

	_, err = s.service.CancelEnrollment(s.ctx, e.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Equal(0, s.enrolled(course.ID))
}

func (s *EnrollmentServiceSuite) TestDraftCourseIsNotOpen() {
	for _, maxStudents := range []int{0, 1, 50} {
		course := s.createCourse("DRAFT-"+strconv.Itoa(maxStudents), maxStudents, false)
		_, err := s.enroll(1, course.ID)
		assertRejected(s.T(), err, MsgCourseNotOpen)
		s.Equal(0, s.enrolled(course.ID))
	}
}

func (s *EnrollmentServiceSuite) TestUnlimitedCourse() {
	course := s.createCourse("OPEN-1", 0, true)
	for student := int64(1); student <= 25; student++ {
		_, err := s.enroll(student, course.ID)
		s.Require().NoError(err)
	}
	s.Equal(25, s.enrolled(course.ID))
}

func (s *EnrollmentServiceSuite) TestUnknownCourse() {
	_, err := s.enroll(1, 999)
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeNotFound, de.Code)
	s.Equal("course", de.Entity)
}

func (s *EnrollmentServiceSuite) TestValidation() {
	_, err := s.service.EnrollStudent(s.ctx, &models.EnrollRequest{StudentID: 0, CourseID: -3})
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, de.Code)
	s.Contains(de.Fields, "student_id")
	s.Contains(de.Fields, "course_id")

	_, err = s.service.EnrollStudent(s.ctx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.events.Events())
}

func (s *EnrollmentServiceSuite) TestDuplicateEnrollment() {
	course := s.createCourse("CS-103", 5, true)
	e, err := s.enroll(7, course.ID)
	s.Require().NoError(err)

	_, err = s.enroll(7, course.ID)
	assertRejected(s.T(), err, MsgAlreadyEnrolled)
	s.Equal(1, s.enrolled(course.ID))

	s.Run("completed enrollment still blocks", func() {
		_, err := s.service.CompleteEnrollment(s.ctx, e.ID)
		s.Require().NoError(err)
		_, err = s.enroll(7, course.ID)
		assertRejected(s.T(), err, MsgAlreadyEnrolled)
	})
}

func (s *EnrollmentServiceSuite) TestReenrollAfterCancel() {
	course := s.createCourse("CS-104", 1, true)
	e, err := s.enroll(7, course.ID)
	s.Require().NoError(err)
	_, err = s.service.CancelEnrollment(s.ctx, e.ID)
	s.Require().NoError(err)

	again, err := s.enroll(7, course.ID)
	s.Require().NoError(err)
	s.NotEqual(e.ID, again.ID)
	s.Equal(1, s.enrolled(course.ID))
}

func (s *EnrollmentServiceSuite) TestCompleteKeepsSeat() {
	course := s.createCourse("CS-105", 3, true)
	e, err := s.enroll(1, course.ID)
	s.Require().NoError(err)

	completed, err := s.service.CompleteEnrollment(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, completed.Status)
	s.Require().NotNil(completed.CompletedAt)
	s.Equal(1, s.enrolled(course.ID))

	_, err = s.service.CompleteEnrollment(s.ctx, e.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	_, err = s.service.CancelEnrollment(s.ctx, e.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Equal(1, s.enrolled(course.ID))
}

func (s *EnrollmentServiceSuite) TestUnknownEnrollment() {
	for _, id := range []int64{0, 404} {
		_, err := s.service.CompleteEnrollment(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.service.CancelEnrollment(s.ctx, id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	}
}

func (s *EnrollmentServiceSuite) TestStudentEnrollmentsNewestFirst() {
	a := s.createCourse("A-1", 0, true)
	b := s.createCourse("B-1", 0, true)
	c := s.createCourse("C-1", 0, true)

	first, err := s.enroll(5, a.ID)
	s.Require().NoError(err)
	later := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
	second, err := s.service.EnrollStudent(later, &models.EnrollRequest{StudentID: 5, CourseID: b.ID})
	s.Require().NoError(err)
	third, err := s.service.EnrollStudent(later, &models.EnrollRequest{StudentID: 5, CourseID: c.ID})
	s.Require().NoError(err)
	_, err = s.enroll(6, a.ID)
	s.Require().NoError(err)

	list, err := s.service.GetStudentEnrollments(s.ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]int64{third.ID, second.ID, first.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	empty, err := s.service.GetStudentEnrollments(s.ctx, 99)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)

	_, err = s.service.GetStudentEnrollments(s.ctx, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *EnrollmentServiceSuite) TestLifecycleEventsRecorded() {
	course := s.createCourse("EV-1", 5, true)
	a, err := s.enroll(1, course.ID)
	s.Require().NoError(err)
	b, err := s.enroll(2, course.ID)
	s.Require().NoError(err)
	_, err = s.service.CompleteEnrollment(s.ctx, a.ID)
	s.Require().NoError(err)
	_, err = s.service.CancelEnrollment(s.ctx, b.ID)
	s.Require().NoError(err)
	_, err = s.enroll(1, course.ID)
	s.Require().Error(err)

	events := s.events.Events()
	s.Require().Len(events, 4)
	s.Equal(eventTypeEnrolled, events[0].Type)
	s.Equal(a.ID, events[0].AggregateID)
	s.Equal(eventTypeEnrolled, events[1].Type)
	s.Equal(eventTypeCompleted, events[2].Type)
	s.Equal(eventTypeCancelled, events[3].Type)
	s.Equal(b.ID, events[3].AggregateID)
	s.JSONEq(`{"enrollment_id":2,"student_id":2,"course_id":1,"status":"cancelled","occurred_at":"2025-09-01T09:00:00Z"}`,
		string(events[3].Payload))
}

func (s *EnrollmentServiceSuite) TestConcurrentEnrollForLastSeat() {
	course := s.createCourse("RACE-1", 1, true)

	const students = 20
	var wg sync.WaitGroup
	results := make([]error, students)
	for i := range students {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.enroll(int64(i+1), course.ID)
		}(i)
	}
	wg.Wait()

	var ok, full int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case dErrors.HasCode(err, dErrors.CodeEnrollmentRejected):
			full++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, ok)
	s.Equal(students-1, full)
	s.Equal(1, s.enrolled(course.ID))
}

func (s *EnrollmentServiceSuite) TestConcurrentCompleteAndCancel() {
	course := s.createCourse("RACE-2", 10, true)
	e, err := s.enroll(1, course.ID)
	s.Require().NoError(err)

	var g errgroup.Group
	var completeErr, cancelErr error
	g.Go(func() error {
		_, completeErr = s.service.CompleteEnrollment(s.ctx, e.ID)
		return nil
	})
	g.Go(func() error {
		_, cancelErr = s.service.CancelEnrollment(s.ctx, e.ID)
		return nil
	})
	s.Require().NoError(g.Wait())

	s.True((completeErr == nil) != (cancelErr == nil), "exactly one transition wins")
	stored, err := s.enrollments.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	if cancelErr == nil {
		s.Equal(models.StatusCancelled, stored.Status)
		s.Equal(0, s.enrolled(course.ID))
		s.True(dErrors.HasCode(completeErr, dErrors.CodeInvalidState))
	} else {
		s.Equal(models.StatusCompleted, stored.Status)
		s.Equal(1, s.enrolled(course.ID))
		s.True(dErrors.HasCode(cancelErr, dErrors.CodeInvalidState))
	}
}

// failingEnrollments fails Create after the seat has been taken.
type failingEnrollments struct {
	*enrollmentstore.InMemory
}

func (f failingEnrollments) Create(context.Context, *models.Enrollment) error {
	return errors.New("disk full")
}

func (s *EnrollmentServiceSuite) TestFailedCreateRollsBackSeat() {
	course := s.createCourse("RB-1", 1, true)
	svc := New(NewInMemoryTx(s.courses, failingEnrollments{s.enrollments}, s.events), s.enrollments)

	_, err := svc.EnrollStudent(s.ctx, &models.EnrollRequest{StudentID: 1, CourseID: course.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(0, s.enrolled(course.ID))
	s.Empty(s.events.Events())

	_, err = s.enroll(1, course.ID)
	s.Require().NoError(err, "seat is free again")
}

func (s *EnrollmentServiceSuite) TestCancelledContext() {
	course := s.createCourse("CTX-1", 1, true)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service.EnrollStudent(ctx, &models.EnrollRequest{StudentID: 1, CourseID: course.ID})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	s.Equal(0, s.enrolled(course.ID))
}
