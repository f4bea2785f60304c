package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"campus/pkg/validation"
)

// EnrollRequest asks to enroll a student in a course.
type EnrollRequest struct {
	StudentID int64 `json:"student_id"`
	CourseID  int64 `json:"course_id"`
}

// Validate reports every field problem at once.
func (r *EnrollRequest) Validate() error {
	var acc validation.Accumulator
	if r.StudentID <= 0 {
		acc.Add("student_id", "Student ID must be a positive integer")
	}
	if r.CourseID <= 0 {
		acc.Add("course_id", "Course ID must be a positive integer")
	}
	return acc.Err()
}

// ParseEnrollInput converts an already-decoded field map (as produced by a
// JSON decoder into map[string]any) into an EnrollRequest. Missing and
// mistyped fields are all reported together.
func ParseEnrollInput(input map[string]any) (*EnrollRequest, error) {
	var acc validation.Accumulator
	studentID := positiveID(&acc, input, "student_id", "Student ID")
	courseID := positiveID(&acc, input, "course_id", "Course ID")
	if err := acc.Err(); err != nil {
		return nil, err
	}
	return &EnrollRequest{StudentID: studentID, CourseID: courseID}, nil
}

func positiveID(acc *validation.Accumulator, input map[string]any, field, label string) int64 {
	raw, ok := input[field]
	if !ok || raw == nil {
		acc.Add(field, label+" is required")
		return 0
	}

	var id int64
	valid := true
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			valid = false
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case json.Number:
		n, err := v.Int64()
		valid = err == nil
		id = n
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			acc.Add(field, label+" is required")
			return 0
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		valid = err == nil
		id = n
	default:
		valid = false
	}

	if !valid {
		acc.Add(field, label+" must be an integer")
		return 0
	}
	if id <= 0 {
		acc.Add(field, label+" must be a positive integer")
		return 0
	}
	return id
}
