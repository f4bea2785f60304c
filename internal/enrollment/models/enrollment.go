package models

import (
	"time"

	dErrors "campus/pkg/domain-errors"
)

// Status is the lifecycle state of an enrollment.
//
//	active --complete--> completed (terminal)
//	active --cancel-->   cancelled (terminal)
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s -> target is an edge of the state machine.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusActive && target.IsTerminal()
}

// Enrollment links one student to one course.
//
// Invariants:
//   - StudentID and CourseID are positive
//   - at most one non-cancelled enrollment exists per (StudentID, CourseID)
//   - CompletedAt is set iff Status is completed; CancelledAt iff cancelled
type Enrollment struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"student_id"`
	CourseID    int64      `json:"course_id"`
	Status      Status     `json:"status"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

// NewEnrollment builds an active enrollment stamped with now.
func NewEnrollment(studentID, courseID int64, now time.Time) (*Enrollment, error) {
	if studentID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "student id must be positive")
	}
	if courseID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "course id must be positive")
	}
	return &Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     StatusActive,
		EnrolledAt: now,
	}, nil
}

func (e *Enrollment) IsActive() bool {
	return e.Status == StatusActive
}

// Complete moves an active enrollment to completed.
func (e *Enrollment) Complete(now time.Time) error {
	if !e.Status.CanTransitionTo(StatusCompleted) {
		return dErrors.InvalidState("cannot complete enrollment in status " + string(e.Status))
	}
	e.Status = StatusCompleted
	e.CompletedAt = &now
	return nil
}

// Cancel moves an active enrollment to cancelled.
func (e *Enrollment) Cancel(now time.Time) error {
	if !e.Status.CanTransitionTo(StatusCancelled) {
		return dErrors.InvalidState("cannot cancel enrollment in status " + string(e.Status))
	}
	e.Status = StatusCancelled
	e.CancelledAt = &now
	return nil
}

// Clone returns a deep copy.
func (e *Enrollment) Clone() *Enrollment {
	cp := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		cp.CompletedAt = &t
	}
	if e.CancelledAt != nil {
		t := *e.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}
