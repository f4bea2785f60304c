package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"campus/internal/course/models"
	"campus/pkg/platform/sentinel"
)

// InMemory is a course store and capacity ledger backed by a map.
// Every method holds the store lock for its whole read-modify-write, which
// gives the ledger methods the same atomicity as the SQL conditional update.
type InMemory struct {
	mu      sync.RWMutex
	nextID  int64
	courses map[int64]*models.Course
	codes   map[string]int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		courses: make(map[int64]*models.Course),
		codes:   make(map[string]int64),
	}
}

// Create assigns an ID and stores the course. Course codes are unique
// case-insensitively.
func (s *InMemory) Create(_ context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(course.CourseCode)
	if _, taken := s.codes[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.nextID++
	course.ID = s.nextID
	s.courses[course.ID] = course.Clone()
	s.codes[key] = course.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		if filter.Matches(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStatus writes status and updated_at only; the enrolled counter is
// left to the ledger methods.
func (s *InMemory) UpdateStatus(_ context.Context, id int64, status models.Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = &now
	return nil
}

// UpdateDetails writes the editable fields of course. The stored counter is
// authoritative: a positive capacity below it is refused with
// ErrInvalidState, and on success course.CurrentEnrolled is refreshed from it.
func (s *InMemory) UpdateDetails(_ context.Context, course *models.Course, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[course.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if course.MaxStudents > 0 && c.CurrentEnrolled > course.MaxStudents {
		return sentinel.ErrInvalidState
	}
	c.Title = course.Title
	c.Description = course.Description
	c.Category = course.Category
	c.MaxStudents = course.MaxStudents
	c.UpdatedAt = &now
	course.CurrentEnrolled = c.CurrentEnrolled
	return nil
}

// Delete removes a course holding no seats. Completed enrollments keep their
// seat, so a zero counter means only cancelled enrollments reference it.
func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.CurrentEnrolled > 0 {
		return sentinel.ErrInvalidState
	}
	delete(s.courses, id)
	delete(s.codes, strings.ToLower(c.CourseCode))
	return nil
}

// IncrementEnrolledIfAvailable takes one seat when the course is published
// and has room. It reports false when the precondition no longer holds.
func (s *InMemory) IncrementEnrolledIfAvailable(_ context.Context, id int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if !c.CanEnroll(c.CurrentEnrolled) {
		return false, nil
	}
	c.OnEnroll()
	c.UpdatedAt = &now
	return true, nil
}

// DecrementEnrolled releases one seat. It reports false when the counter was
// already zero.
func (s *InMemory) DecrementEnrolled(_ context.Context, id int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if c.CurrentEnrolled == 0 {
		return false, nil
	}
	c.OnCancelEnrollment()
	c.UpdatedAt = &now
	return true, nil
}

// AdjustEnrolled moves the enrolled counter by delta without checking
// capacity or status. The in-memory transaction uses it to undo ledger
// writes when a later step fails.
func (s *InMemory) AdjustEnrolled(_ context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.CurrentEnrolled += delta
	if c.CurrentEnrolled < 0 {
		c.CurrentEnrolled = 0
	}
	return nil
}
