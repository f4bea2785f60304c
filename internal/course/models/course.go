package models

import (
	"time"

	"campus/pkg/validation"
)

// Course is a single offering students can enroll in.
//
// Invariants:
//   - CourseCode, Title, Description and Category are non-blank
//   - MaxStudents >= 0, where 0 means unlimited
//   - 0 <= CurrentEnrolled, and CurrentEnrolled <= MaxStudents when MaxStudents > 0
//   - ID is assigned by the store on first persist and never changes
//
// CurrentEnrolled is owned by the capacity ledger (the course store's
// conditional increment/decrement). Nothing else writes it; OnEnroll and
// OnCancelEnrollment are only safe inside that atomic unit.
type Course struct {
	ID              int64      `json:"id"`
	CourseCode      string     `json:"course_code"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	MaxStudents     int        `json:"max_students"`
	CurrentEnrolled int        `json:"current_enrolled"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`

	errs validation.Accumulator
}

// NewCourse builds a draft course with no enrollments. Call Validate before
// persisting it.
func NewCourse(code, title, description, category string, maxStudents int, now time.Time) *Course {
	return &Course{
		CourseCode:  code,
		Title:       title,
		Description: description,
		Category:    category,
		MaxStudents: maxStudents,
		Status:      StatusDraft,
		CreatedAt:   now,
	}
}

// Validate runs every field check and reports whether the course is well
// formed. All failures are collected; see ValidationErrors.
func (c *Course) Validate() bool {
	c.errs.Clear()
	c.checkFields()
	if c.exceedsCapacity() {
		c.errs.Add("current_enrolled", "current_enrolled cannot exceed max_students")
	}
	return !c.errs.HasErrors()
}

// ApplyUpdate replaces the editable fields with req and validates the
// result. Capacity below the enrolled count is reported on max_students.
// CurrentEnrolled is not touched.
func (c *Course) ApplyUpdate(req *UpdateCourseRequest) bool {
	c.Title = req.Title
	c.Description = req.Description
	c.Category = req.Category
	c.MaxStudents = req.MaxStudents

	c.errs.Clear()
	c.checkFields()
	if c.exceedsCapacity() {
		c.errs.Add("max_students", MsgCapacityBelowEnrolled)
	}
	return !c.errs.HasErrors()
}

// MsgCapacityBelowEnrolled rejects an update that would shrink a course
// below its enrolled count.
const MsgCapacityBelowEnrolled = "max_students cannot be less than current enrollment"

func (c *Course) checkFields() {
	c.errs.Required("course_code", c.CourseCode, "Course code")
	c.errs.Required("title", c.Title, "Title")
	c.errs.Required("description", c.Description, "Description")
	c.errs.Required("category", c.Category, "Category")

	if c.MaxStudents < 0 {
		c.errs.Add("max_students", "max_students must be >= 0")
	}
	if c.CurrentEnrolled < 0 {
		c.errs.Add("current_enrolled", "current_enrolled must be >= 0")
	}
	if !c.Status.IsValid() {
		c.errs.Add("status", "status must be one of draft, published, archived")
	}
}

func (c *Course) exceedsCapacity() bool {
	return c.MaxStudents > 0 && c.CurrentEnrolled > c.MaxStudents
}

// ValidationErrors returns the field errors from the last Validate call.
func (c *Course) ValidationErrors() map[string][]string {
	return c.errs.Errors()
}

// ValidationErr returns the last Validate outcome as a domain error, or nil.
func (c *Course) ValidationErr() error {
	return c.errs.Err()
}

// Publish opens the course for enrollment. Idempotent.
func (c *Course) Publish() {
	c.Status = StatusPublished
}

// Unpublish returns the course to draft. Idempotent.
func (c *Course) Unpublish() {
	c.Status = StatusDraft
}

func (c *Course) IsPublished() bool {
	return c.Status == StatusPublished
}

func (c *Course) IsUnlimited() bool {
	return c.MaxStudents == 0
}

// CanEnroll decides whether one more student fits given enrolled students.
// It does not mutate the course.
func (c *Course) CanEnroll(enrolled int) bool {
	if !c.IsPublished() {
		return false
	}
	if c.IsUnlimited() {
		return true
	}
	return enrolled < c.MaxStudents
}

// OnEnroll records one more enrolled student.
func (c *Course) OnEnroll() {
	c.CurrentEnrolled++
}

// OnCancelEnrollment releases one seat, never going below zero.
func (c *Course) OnCancelEnrollment() {
	if c.CurrentEnrolled > 0 {
		c.CurrentEnrolled--
	}
}

// Clone returns a copy safe to hand out of a store.
func (c *Course) Clone() *Course {
	cp := *c
	cp.errs = validation.Accumulator{}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}
