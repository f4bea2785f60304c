package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campus/internal/course/models"
	"campus/pkg/platform/sentinel"
)

type CourseStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *CourseStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
}

func TestCourseStoreSuite(t *testing.T) {
	suite.Run(t, new(CourseStoreSuite))
}

func (s *CourseStoreSuite) newCourse(code string, max int) *models.Course {
	return models.NewCourse(code, "Title "+code, "Description", "Category", max, s.now)
}

func (s *CourseStoreSuite) published(code string, max int) *models.Course {
	c := s.newCourse(code, max)
	c.Publish()
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *CourseStoreSuite) TestCreationAndLookups() {
	s.Run("assigns sequential ids", func() {
		a := s.newCourse("A-1", 0)
		b := s.newCourse("B-1", 0)
		s.Require().NoError(s.store.Create(s.ctx, a))
		s.Require().NoError(s.store.Create(s.ctx, b))
		s.Positive(a.ID)
		s.Equal(a.ID+1, b.ID)

		found, err := s.store.FindByID(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal("B-1", found.CourseCode)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate code case-insensitively", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newCourse("DUP-1", 0)))
		err := s.store.Create(s.ctx, s.newCourse("dup-1", 0))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("returned course is a copy", func() {
		c := s.published("COPY-1", 1)
		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.OnEnroll()

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Zero(again.CurrentEnrolled)
	})
}

func (s *CourseStoreSuite) TestList() {
	draft := s.newCourse("L-1", 0)
	s.Require().NoError(s.store.Create(s.ctx, draft))
	pub := s.published("L-2", 0)

	all, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(draft.ID, all[0].ID)

	onlyPublished, err := s.store.List(s.ctx, models.ListFilter{Statuses: []models.Status{models.StatusPublished}})
	s.Require().NoError(err)
	s.Require().Len(onlyPublished, 1)
	s.Equal(pub.ID, onlyPublished[0].ID)
}

func (s *CourseStoreSuite) TestUpdateStatus() {
	c := s.newCourse("S-1", 0)
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Require().NoError(s.store.UpdateStatus(s.ctx, c.ID, models.StatusPublished, s.now))
	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPublished, found.Status)
	s.Require().NotNil(found.UpdatedAt)

	s.ErrorIs(s.store.UpdateStatus(s.ctx, 404, models.StatusDraft, s.now), sentinel.ErrNotFound)
}

func (s *CourseStoreSuite) TestUpdateDetails() {
	c := s.published("U-1", 3)
	for range 2 {
		ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.Require().True(ok)
	}

	s.Run("writes editable fields and keeps the counter", func() {
		edit := c.Clone()
		edit.Title = "Renamed"
		edit.MaxStudents = 2
		edit.CurrentEnrolled = 0

		s.Require().NoError(s.store.UpdateDetails(s.ctx, edit, s.now))
		s.Equal(2, edit.CurrentEnrolled, "refreshed from the store")

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("Renamed", found.Title)
		s.Equal(2, found.MaxStudents)
		s.Equal(2, found.CurrentEnrolled)
		s.Equal(models.StatusPublished, found.Status)
	})

	s.Run("refuses capacity below the stored counter", func() {
		edit := c.Clone()
		edit.MaxStudents = 1
		s.ErrorIs(s.store.UpdateDetails(s.ctx, edit, s.now), sentinel.ErrInvalidState)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(2, found.MaxStudents)
	})

	s.Run("unknown course", func() {
		edit := c.Clone()
		edit.ID = 404
		s.ErrorIs(s.store.UpdateDetails(s.ctx, edit, s.now), sentinel.ErrNotFound)
	})
}

func (s *CourseStoreSuite) TestDelete() {
	busy := s.published("D-1", 0)
	ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, busy.ID, s.now)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.ErrorIs(s.store.Delete(s.ctx, busy.ID), sentinel.ErrInvalidState)

	idle := s.published("D-2", 0)
	s.Require().NoError(s.store.Delete(s.ctx, idle.ID))
	_, err = s.store.FindByID(s.ctx, idle.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, idle.ID), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Create(s.ctx, s.newCourse("d-2", 0)), "code is free again")
}

// TestLedger verifies the conditional counter updates.
func (s *CourseStoreSuite) TestLedger() {
	s.Run("increments until capacity", func() {
		c := s.published("CAP-2", 2)
		for i := 0; i < 2; i++ {
			ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
			s.Require().NoError(err)
			s.True(ok)
		}
		ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.False(ok)

		found, _ := s.store.FindByID(s.ctx, c.ID)
		s.Equal(2, found.CurrentEnrolled)
	})

	s.Run("refuses draft courses", func() {
		c := s.newCourse("DRAFT-1", 0)
		s.Require().NoError(s.store.Create(s.ctx, c))
		ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("decrement floors at zero", func() {
		c := s.published("DEC-1", 0)
		ok, err := s.store.DecrementEnrolled(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.False(ok)

		_, _ = s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
		ok, err = s.store.DecrementEnrolled(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.True(ok)

		found, _ := s.store.FindByID(s.ctx, c.ID)
		s.Zero(found.CurrentEnrolled)
	})

	s.Run("unknown course is not found", func() {
		_, err := s.store.IncrementEnrolledIfAvailable(s.ctx, 999, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.DecrementEnrolled(s.ctx, 999, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentIncrement verifies that concurrent seat grabs never exceed capacity.
func (s *CourseStoreSuite) TestConcurrentIncrement() {
	const capacity = 5
	const goroutines = 50
	c := s.published("RACE-1", capacity)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
			if err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(capacity), granted.Load())
	found, _ := s.store.FindByID(s.ctx, c.ID)
	s.Equal(capacity, found.CurrentEnrolled)
}

func (s *CourseStoreSuite) TestAdjustEnrolled() {
	c := s.published("R-1", 3)
	_, _ = s.store.IncrementEnrolledIfAvailable(s.ctx, c.ID, s.now)
	s.Require().NoError(s.store.UpdateStatus(s.ctx, c.ID, models.StatusDraft, s.now))

	s.Require().NoError(s.store.AdjustEnrolled(s.ctx, c.ID, -1))

	found, _ := s.store.FindByID(s.ctx, c.ID)
	s.Zero(found.CurrentEnrolled)
	s.Equal(models.StatusDraft, found.Status, "status is untouched")

	s.Require().NoError(s.store.AdjustEnrolled(s.ctx, c.ID, -1))
	found, _ = s.store.FindByID(s.ctx, c.ID)
	s.Zero(found.CurrentEnrolled, "floored at zero")

	s.ErrorIs(s.store.AdjustEnrolled(s.ctx, 777, 1), sentinel.ErrNotFound)
}
