package models

import "strings"

// CreateCourseRequest is the input for registering a new course.
type CreateCourseRequest struct {
	CourseCode  string `json:"course_code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MaxStudents int    `json:"max_students"`
}

// Normalize trims surrounding whitespace and upper-cases the course code.
func (r *CreateCourseRequest) Normalize() {
	r.CourseCode = strings.ToUpper(strings.TrimSpace(r.CourseCode))
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
}

// UpdateCourseRequest replaces a course's descriptive fields and capacity.
// The course code is fixed at creation.
type UpdateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MaxStudents int    `json:"max_students"`
}

func (r *UpdateCourseRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
}

// ListFilter narrows ListCourses. A zero filter lists everything.
type ListFilter struct {
	Statuses []Status
}

// Matches reports whether c passes the filter.
func (f ListFilter) Matches(c *Course) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if c.Status == s {
			return true
		}
	}
	return false
}
