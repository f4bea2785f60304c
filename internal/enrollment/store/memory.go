package store

import (
	"context"
	"sort"
	"sync"

	"campus/internal/enrollment/models"
	"campus/pkg/platform/sentinel"
)

type pairKey struct {
	studentID int64
	courseID  int64
}

// InMemory stores enrollments in maps. open indexes the single
// non-cancelled enrollment per (student, course).
type InMemory struct {
	mu          sync.RWMutex
	nextID      int64
	enrollments map[int64]*models.Enrollment
	open        map[pairKey]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		enrollments: make(map[int64]*models.Enrollment),
		open:        make(map[pairKey]int64),
	}
}

func (s *InMemory) Create(_ context.Context, e *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{e.StudentID, e.CourseID}
	if e.Status != models.StatusCancelled {
		if _, taken := s.open[key]; taken {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.nextID++
	e.ID = s.nextID
	s.put(e)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// FindOpenByStudentAndCourse returns the active or completed enrollment for
// the pair, or ErrNotFound.
func (s *InMemory) FindOpenByStudentAndCourse(_ context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.open[pairKey{studentID, courseID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.enrollments[id].Clone(), nil
}

// ListByStudent returns the student's enrollments, newest first.
func (s *InMemory) ListByStudent(_ context.Context, studentID int64) ([]*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Enrollment, 0)
	for _, e := range s.enrollments {
		if e.StudentID == studentID {
			out = append(out, e.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// TransitionFromActive persists e's terminal status only if the stored row
// is still active. It reports false when another writer got there first.
func (s *InMemory) TransitionFromActive(_ context.Context, e *models.Enrollment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.enrollments[e.ID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if current.Status != models.StatusActive {
		return false, nil
	}
	s.put(e)
	return true, nil
}

// Delete removes an enrollment. Used to roll back an in-memory transaction.
func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	key := pairKey{e.StudentID, e.CourseID}
	if s.open[key] == id {
		delete(s.open, key)
	}
	delete(s.enrollments, id)
	return nil
}

// Restore overwrites a stored enrollment with snapshot.
func (s *InMemory) Restore(_ context.Context, snapshot *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[snapshot.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.put(snapshot)
	return nil
}

// put stores a copy of e and keeps the open index in sync. Callers hold mu.
func (s *InMemory) put(e *models.Enrollment) {
	s.enrollments[e.ID] = e.Clone()
	key := pairKey{e.StudentID, e.CourseID}
	switch {
	case e.Status != models.StatusCancelled:
		s.open[key] = e.ID
	case s.open[key] == e.ID:
		delete(s.open, key)
	}
}

func sortNewestFirst(list []*models.Enrollment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].EnrolledAt.Equal(list[j].EnrolledAt) {
			return list[i].EnrolledAt.After(list[j].EnrolledAt)
		}
		return list[i].ID > list[j].ID
	})
}
