package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"campus/internal/course/models"
	"campus/internal/course/store"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/sentinel"
	"campus/pkg/requestcontext"
)

type CourseServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *store.InMemory
	service *Service
}

func TestCourseServiceSuite(t *testing.T) {
	suite.Run(t, new(CourseServiceSuite))
}

func (s *CourseServiceSuite) SetupTest() {
	s.now = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = store.NewInMemory()
	s.service = New(s.store)
}

func (s *CourseServiceSuite) validRequest(code string) *models.CreateCourseRequest {
	return &models.CreateCourseRequest{
		CourseCode:  code,
		Title:       "Databases",
		Description: "Relational theory and SQL",
		Category:    "Computer Science",
		MaxStudents: 40,
	}
}

func (s *CourseServiceSuite) TestCreateCourse() {
	course, err := s.service.CreateCourse(s.ctx, s.validRequest("  cs-220 "))
	s.Require().NoError(err)
	s.NotZero(course.ID)
	s.Equal("CS-220", course.CourseCode)
	s.Equal(models.StatusDraft, course.Status)
	s.Zero(course.CurrentEnrolled)
	s.Equal(s.now, course.CreatedAt)

	s.Run("duplicate code", func() {
		_, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-220"))
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Contains(de.Fields, "course_code")
	})
}

func (s *CourseServiceSuite) TestCreateCourseCollectsAllErrors() {
	_, err := s.service.CreateCourse(s.ctx, &models.CreateCourseRequest{MaxStudents: -1})
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, de.Code)
	s.Equal([]string{"Course code is required"}, de.Fields["course_code"])
	s.Equal([]string{"Title is required"}, de.Fields["title"])
	s.Equal([]string{"Description is required"}, de.Fields["description"])
	s.Equal([]string{"Category is required"}, de.Fields["category"])
	s.Equal([]string{"max_students must be >= 0"}, de.Fields["max_students"])

	list, err := s.service.ListCourses(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *CourseServiceSuite) TestPublishAndUnpublish() {
	course, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-221"))
	s.Require().NoError(err)

	published, err := s.service.Publish(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPublished, published.Status)
	s.Require().NotNil(published.UpdatedAt)

	again, err := s.service.Publish(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPublished, again.Status)

	_, err = s.store.IncrementEnrolledIfAvailable(s.ctx, course.ID, s.now)
	s.Require().NoError(err)

	draft, err := s.service.Unpublish(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, draft.Status)

	stored, err := s.service.GetCourse(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, stored.Status)
	s.Equal(1, stored.CurrentEnrolled, "status changes never touch the counter")
}

func (s *CourseServiceSuite) TestUnknownCourse() {
	_, err := s.service.GetCourse(s.ctx, 123)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Publish(s.ctx, 123)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Unpublish(s.ctx, 123)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CourseServiceSuite) TestListCoursesByStatus() {
	a, err := s.service.CreateCourse(s.ctx, s.validRequest("A-100"))
	s.Require().NoError(err)
	b, err := s.service.CreateCourse(s.ctx, s.validRequest("B-100"))
	s.Require().NoError(err)
	_, err = s.service.Publish(s.ctx, b.ID)
	s.Require().NoError(err)

	all, err := s.service.ListCourses(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a.ID, all[0].ID)

	published, err := s.service.ListCourses(s.ctx, models.ListFilter{Statuses: []models.Status{models.StatusPublished}})
	s.Require().NoError(err)
	s.Require().Len(published, 1)
	s.Equal(b.ID, published[0].ID)

	_, err = s.service.ListCourses(s.ctx, models.ListFilter{Statuses: []models.Status{"retired"}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CourseServiceSuite) updateRequest(maxStudents int) *models.UpdateCourseRequest {
	return &models.UpdateCourseRequest{
		Title:       "  Advanced Databases ",
		Description: "Query planning and indexes",
		Category:    "Computer Science",
		MaxStudents: maxStudents,
	}
}

func (s *CourseServiceSuite) takeSeats(id int64, n int) {
	for range n {
		ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, id, s.now)
		s.Require().NoError(err)
		s.Require().True(ok)
	}
}

func (s *CourseServiceSuite) TestUpdateCourse() {
	course, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-300"))
	s.Require().NoError(err)
	_, err = s.service.Publish(s.ctx, course.ID)
	s.Require().NoError(err)
	s.takeSeats(course.ID, 3)

	updated, err := s.service.UpdateCourse(s.ctx, course.ID, s.updateRequest(3))
	s.Require().NoError(err)
	s.Equal("Advanced Databases", updated.Title)
	s.Equal("CS-300", updated.CourseCode)
	s.Equal(3, updated.MaxStudents)
	s.Equal(3, updated.CurrentEnrolled)
	s.Equal(models.StatusPublished, updated.Status)
	s.Require().NotNil(updated.UpdatedAt)

	s.Run("capacity below enrolled count", func() {
		_, err := s.service.UpdateCourse(s.ctx, course.ID, s.updateRequest(2))
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Equal([]string{models.MsgCapacityBelowEnrolled}, de.Fields["max_students"])

		stored, err := s.service.GetCourse(s.ctx, course.ID)
		s.Require().NoError(err)
		s.Equal(3, stored.MaxStudents)
	})

	s.Run("all field errors at once", func() {
		_, err := s.service.UpdateCourse(s.ctx, course.ID, &models.UpdateCourseRequest{MaxStudents: -1})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Contains(de.Fields, "title")
		s.Contains(de.Fields, "description")
		s.Contains(de.Fields, "category")
		s.Contains(de.Fields, "max_students")
	})

	s.Run("unknown course", func() {
		_, err := s.service.UpdateCourse(s.ctx, 999, s.updateRequest(0))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// seatRace takes a seat between the service's load and its write.
type seatRace struct {
	*store.InMemory
	now time.Time
}

func (r seatRace) UpdateDetails(ctx context.Context, course *models.Course, now time.Time) error {
	if _, err := r.IncrementEnrolledIfAvailable(ctx, course.ID, r.now); err != nil {
		return err
	}
	return r.InMemory.UpdateDetails(ctx, course, now)
}

func (s *CourseServiceSuite) TestUpdateCourseLosesToConcurrentEnrollment() {
	course, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-301"))
	s.Require().NoError(err)
	_, err = s.service.Publish(s.ctx, course.ID)
	s.Require().NoError(err)
	s.takeSeats(course.ID, 2)

	svc := New(seatRace{InMemory: s.store, now: s.now})
	_, err = svc.UpdateCourse(s.ctx, course.ID, s.updateRequest(2))

	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, de.Code)
	s.Equal([]string{models.MsgCapacityBelowEnrolled}, de.Fields["max_students"])
	stored, err := s.store.FindByID(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(40, stored.MaxStudents)
	s.Equal(3, stored.CurrentEnrolled)
}

func (s *CourseServiceSuite) TestDeleteCourse() {
	busy, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-400"))
	s.Require().NoError(err)
	_, err = s.service.Publish(s.ctx, busy.ID)
	s.Require().NoError(err)
	s.takeSeats(busy.ID, 1)

	err = s.service.DeleteCourse(s.ctx, busy.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	s.Contains(err.Error(), MsgCourseHasEnrollments)
	_, err = s.service.GetCourse(s.ctx, busy.ID)
	s.Require().NoError(err)

	idle, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-401"))
	s.Require().NoError(err)
	s.Require().NoError(s.service.DeleteCourse(s.ctx, idle.ID))
	_, err = s.service.GetCourse(s.ctx, idle.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.True(dErrors.HasCode(s.service.DeleteCourse(s.ctx, idle.ID), dErrors.CodeNotFound))
}

func (s *CourseServiceSuite) TestArchivedCourseIsFrozen() {
	course, err := s.service.CreateCourse(s.ctx, s.validRequest("CS-500"))
	s.Require().NoError(err)
	s.Require().NoError(s.store.UpdateStatus(s.ctx, course.ID, models.StatusArchived, s.now))

	_, err = s.service.Publish(s.ctx, course.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	_, err = s.service.Unpublish(s.ctx, course.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	_, err = s.service.UpdateCourse(s.ctx, course.ID, s.updateRequest(10))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	stored, err := s.service.GetCourse(s.ctx, course.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusArchived, stored.Status)
	s.Equal("Databases", stored.Title)
}

// brokenStore fails every lookup with err.
type brokenStore struct {
	*store.InMemory
	err error
}

func (b brokenStore) FindByID(context.Context, int64) (*models.Course, error) {
	return nil, b.err
}

func TestPersistenceFailureCodes(t *testing.T) {
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	cases := []struct {
		name string
		ctx  context.Context
		err  error
		code dErrors.Code
	}{
		{"deadline error", context.Background(), fmt.Errorf("find course: %w", context.DeadlineExceeded), dErrors.CodeTimeout},
		{"statement cancelled by the database", context.Background(), fmt.Errorf("find course: %w", sentinel.ErrTimeout), dErrors.CodeTimeout},
		{"driver error after the deadline passed", expired, errors.New("pq: canceling statement due to user request"), dErrors.CodeTimeout},
		{"other failure", context.Background(), errors.New("connection reset"), dErrors.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(brokenStore{InMemory: store.NewInMemory(), err: tc.err})
			_, err := svc.GetCourse(tc.ctx, 1)
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}
