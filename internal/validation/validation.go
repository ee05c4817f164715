// Package validation decides whether a candidate Student may be submitted.
//
// The rules themselves live as validate:"..." tags on types.Student and are
// evaluated by go-playground/validator. This package turns the validator's
// output into a map of field name → message that forms can render next to
// each input. Validation never fails: every outcome is expressed as data.
package validation

import (
	"errors"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-portal/internal/types"
)

// Field names, as they appear in JSON and in form inputs.
const (
	FieldFullName = "fullName"
	FieldEmail    = "email"
	FieldAge      = "age"
	FieldGender   = "gender"
	FieldCourses  = "courses"
	FieldConsent  = "consent"
)

// Fields lists every validated field in form order.
var Fields = []string{FieldFullName, FieldEmail, FieldAge, FieldGender, FieldCourses, FieldConsent}

// Age bounds, inclusive.
const (
	MinAge = 16
	MaxAge = 40
)

const ageMessage = "Age must be between 16 and 40"

// messages maps field → failing tag → message shown to the user.
var messages = map[string]map[string]string{
	FieldFullName: {
		"required": "Full Name is required",
		"min":      "Too Short!",
		"max":      "Too Long!",
	},
	FieldEmail: {
		"required": "Email is required",
		"email":    "Invalid email",
	},
	FieldAge: {
		"min": ageMessage,
		"max": ageMessage,
	},
	FieldGender: {
		"oneof": "Gender is required",
	},
	FieldCourses: {
		"min":   "At least one course must be selected",
		"oneof": "Invalid course",
	},
	FieldConsent: {
		"eq": "Consent is required",
	},
}

// Errors maps a field name to the first message produced for it.
// An empty (or nil) Errors means the candidate is acceptable.
type Errors map[string]string

// Valid reports whether no field failed.
func (e Errors) Valid() bool { return len(e) == 0 }

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// add records msg for field unless the field already has an error.
func (e Errors) add(field, msg string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = msg
}

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = newValidator()

func newValidator() *govalidator.Validate {
	v := govalidator.New()

	// Report JSON names ("fullName") instead of Go names ("FullName").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every rule on the candidate and returns one message per
// invalid field. The candidate's ID is never validated.
func Validate(candidate types.Student) Errors {
	errs := Errors{}

	var ve govalidator.ValidationErrors
	if err := validate.Struct(candidate); err != nil && errors.As(err, &ve) {
		for _, fe := range ve {
			field := topLevelField(fe.Field())
			errs.add(field, message(field, fe.Tag()))
		}
	}

	// Explicit re-check of the age bounds on top of the min/max tags.
	if candidate.Age < MinAge || candidate.Age > MaxAge {
		errs.add(FieldAge, ageMessage)
	}

	return errs
}

// topLevelField maps "courses[2]" to "courses".
func topLevelField(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

func message(field, tag string) string {
	if msg, ok := messages[field][tag]; ok {
		return msg
	}
	return "Invalid value"
}
