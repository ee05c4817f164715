// Package types holds the shared data structures used across the portal
// and the development backend. Keeping them in one place prevents import
// cycles: handlers, storage, validation and the API client all import types
// without depending on each other.
package types

// Gender is the fixed set of genders a student can declare.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists every Gender in display order.
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Course is one of the courses a student can enrol in.
type Course string

const (
	CourseMath       Course = "Math"
	CoursePhysics    Course = "Physics"
	CourseCS         Course = "CS"
	CourseLiterature Course = "Literature"
)

// Courses lists every Course in display order.
var Courses = []Course{CourseMath, CoursePhysics, CourseCS, CourseLiterature}

// Label returns the human-readable name shown next to the course checkbox.
func (c Course) Label() string {
	if c == CourseCS {
		return "Computer Science"
	}
	return string(c)
}

// Student represents a student record.
//
// Struct tags serve two purposes:
//
//  1. json:"..." controls the wire shape shared with the backend.
//     ID is omitted for records that have not been saved yet.
//
//  2. validate:"..." holds the rules checked by go-playground/validator.
//     The rules are evaluated in order and the first failure per field wins.
type Student struct {
	ID       string   `json:"id,omitempty"`
	FullName string   `json:"fullName" validate:"required,min=2,max=50"`
	Email    string   `json:"email"    validate:"required,email"`
	Age      int      `json:"age"      validate:"min=16,max=40"`
	Gender   Gender   `json:"gender"   validate:"oneof=Male Female Other"`
	Courses  []Course `json:"courses"  validate:"min=1,dive,oneof=Math Physics CS Literature"`
	Consent  bool     `json:"consent"  validate:"eq=true"`
}

// Default form values for a record that does not exist yet.
const (
	DefaultAge    = 16
	DefaultGender = GenderMale
)

// NewStudent returns an unsaved record holding the form defaults.
func NewStudent() Student {
	return Student{
		Age:     DefaultAge,
		Gender:  DefaultGender,
		Courses: []Course{},
	}
}

// Clone returns a deep copy so callers can edit it without touching the
// original's Courses slice.
func (s Student) Clone() Student {
	out := s
	out.Courses = append([]Course(nil), s.Courses...)
	if out.Courses == nil {
		out.Courses = []Course{}
	}
	return out
}

// HasCourse reports whether c is among the student's courses.
func (s Student) HasCourse(c Course) bool {
	for _, have := range s.Courses {
		if have == c {
			return true
		}
	}
	return false
}
