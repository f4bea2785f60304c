package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/enrollment/models"
	"campus/pkg/platform/sentinel"
)

type EnrollmentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *EnrollmentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
}

func TestEnrollmentStoreSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentStoreSuite))
}

func (s *EnrollmentStoreSuite) create(studentID, courseID int64, at time.Time) *models.Enrollment {
	e, err := models.NewEnrollment(studentID, courseID, at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, e))
	return e
}

func (s *EnrollmentStoreSuite) TestCreationAndLookups() {
	e := s.create(1, 10, s.now)
	s.Positive(e.ID)

	found, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.StudentID, found.StudentID)

	open, err := s.store.FindOpenByStudentAndCourse(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Equal(e.ID, open.ID)

	_, err = s.store.FindByID(s.ctx, 999)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindOpenByStudentAndCourse(s.ctx, 1, 11)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestOpenPairUniqueness verifies one non-cancelled enrollment per pair.
func (s *EnrollmentStoreSuite) TestOpenPairUniqueness() {
	s.Run("rejects a second open enrollment", func() {
		s.create(2, 20, s.now)
		dup, _ := models.NewEnrollment(2, 20, s.now)
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("completed still blocks the pair", func() {
		e := s.create(3, 30, s.now)
		s.Require().NoError(e.Complete(s.now))
		ok, err := s.store.TransitionFromActive(s.ctx, e)
		s.Require().NoError(err)
		s.True(ok)

		again, _ := models.NewEnrollment(3, 30, s.now)
		s.ErrorIs(s.store.Create(s.ctx, again), sentinel.ErrAlreadyUsed)
	})

	s.Run("cancelled frees the pair", func() {
		e := s.create(4, 40, s.now)
		s.Require().NoError(e.Cancel(s.now))
		ok, err := s.store.TransitionFromActive(s.ctx, e)
		s.Require().NoError(err)
		s.True(ok)

		_, err = s.store.FindOpenByStudentAndCourse(s.ctx, 4, 40)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.create(4, 40, s.now.Add(time.Hour))
	})
}

func (s *EnrollmentStoreSuite) TestTransitionFromActive() {
	e := s.create(5, 50, s.now)

	first := e.Clone()
	s.Require().NoError(first.Complete(s.now))
	second := e.Clone()
	s.Require().NoError(second.Cancel(s.now))

	ok, err := s.store.TransitionFromActive(s.ctx, first)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.TransitionFromActive(s.ctx, second)
	s.Require().NoError(err)
	s.False(ok, "second terminal transition must lose")

	found, _ := s.store.FindByID(s.ctx, e.ID)
	s.Equal(models.StatusCompleted, found.Status)

	missing := e.Clone()
	missing.ID = 404
	_, err = s.store.TransitionFromActive(s.ctx, missing)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *EnrollmentStoreSuite) TestListByStudentNewestFirst() {
	older := s.create(6, 60, s.now)
	newer := s.create(6, 61, s.now.Add(time.Hour))
	sameTime := s.create(6, 62, s.now.Add(time.Hour))
	s.create(7, 60, s.now)

	list, err := s.store.ListByStudent(s.ctx, 6)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]int64{sameTime.ID, newer.ID, older.ID}, []int64{list[0].ID, list[1].ID, list[2].ID})

	empty, err := s.store.ListByStudent(s.ctx, 99)
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *EnrollmentStoreSuite) TestDeleteAndRestore() {
	e := s.create(8, 80, s.now)
	s.Require().NoError(s.store.Delete(s.ctx, e.ID))
	_, err := s.store.FindOpenByStudentAndCourse(s.ctx, 8, 80)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, e.ID), sentinel.ErrNotFound)

	active := s.create(9, 90, s.now)
	snapshot := active.Clone()
	s.Require().NoError(active.Cancel(s.now))
	_, err = s.store.TransitionFromActive(s.ctx, active)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Restore(s.ctx, snapshot))
	open, err := s.store.FindOpenByStudentAndCourse(s.ctx, 9, 90)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, open.Status)
}
