package portal

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/aanand-mishra/student-portal/internal/query"
	"github.com/aanand-mishra/student-portal/internal/store"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/validation"
)

// Alert messages shown after a submit.
const (
	MsgAdded   = "Student added successfully!"
	MsgUpdated = "Student updated successfully!"
	MsgFailed  = "An error occurred. Please try again."
)

// AlertKind selects the alert's styling.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertDanger  AlertKind = "danger"
)

// Alert is a transient message shown above the form.
type Alert struct {
	Kind    AlertKind
	Message string
}

// Outcome is the result of Form.Submit.
type Outcome int

const (
	// OutcomeInvalid: validation failed and nothing was sent.
	OutcomeInvalid Outcome = iota
	// OutcomeSucceeded: the backend accepted the record.
	OutcomeSucceeded
	// OutcomeFailed: the backend call failed; the values are kept for a retry.
	OutcomeFailed
	// OutcomeBusy: a submit from this form is still in flight; nothing was sent.
	OutcomeBusy
)

// Form collects and validates one candidate Student and submits it as a
// create, or as an update when it was opened on an existing record.
type Form struct {
	app    *App
	onDone func()

	mu         sync.Mutex
	id         string
	values     types.Student
	touched    map[string]bool
	errors     validation.Errors
	alert      *Alert
	submitting bool
}

// NewForm returns a form seeded from existing, or from the defaults when
// existing is nil. onDone runs SuccessDelay after a successful submit.
func (a *App) NewForm(existing *types.Student, onDone func()) *Form {
	values := types.NewStudent()
	id := ""
	if existing != nil {
		values = existing.Clone()
		id = existing.ID
		values.ID = ""
	}

	f := &Form{
		app:     a,
		onDone:  onDone,
		id:      id,
		values:  values,
		touched: make(map[string]bool),
	}
	f.errors = validation.Validate(f.values)
	return f
}

// IsEdit reports whether the form updates an existing record.
func (f *Form) IsEdit() bool { return f.id != "" }

// ID is the id of the record being edited, or "".
func (f *Form) ID() string { return f.id }

// Values returns a copy of the current values.
func (f *Form) Values() types.Student {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Errors returns every current validation error, touched or not.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(validation.Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// FieldError returns the message to display for field: its error if the
// field has been touched, otherwise "".
func (f *Form) FieldError(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.touched[field] {
		return ""
	}
	return f.errors[field]
}

// Alert returns the current alert, if any.
func (f *Form) Alert() *Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alert == nil {
		return nil
	}
	a := *f.alert
	return &a
}

// Pending reports whether a submit is in flight.
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Change sets field from its raw input values, marks it touched and
// revalidates. Unknown fields are ignored.
func (f *Form) Change(field string, raw ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !setField(&f.values, field, raw) {
		return
	}
	f.touched[field] = true
	f.errors = validation.Validate(f.values)
}

// Blur marks field touched and revalidates.
func (f *Form) Blur(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[field] = true
	f.errors = validation.Validate(f.values)
}

// Fill applies a whole posted form. Checkbox fields missing from in are
// treated as unchecked.
func (f *Form) Fill(in url.Values) {
	for _, field := range validation.Fields {
		f.Change(field, in[field]...)
	}
}

// Submit validates the values and, when they are acceptable, sends them to
// the backend. No request is made for invalid values or while a previous
// submit is pending.
func (f *Form) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return OutcomeBusy
	}
	for _, field := range validation.Fields {
		f.touched[field] = true
	}
	f.errors = validation.Validate(f.values)
	if !f.errors.Valid() {
		f.mu.Unlock()
		return OutcomeInvalid
	}
	candidate := f.values.Clone()
	candidate.ID = f.id
	f.submitting = true
	f.alert = nil
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	a := f.app
	log := a.log.With(slog.String("op", "submit"), slog.String("id", candidate.ID))

	settled := func(types.Student, error, types.Student) {
		a.cache.Invalidate(query.StudentsKey)
	}
	failed := func(err error, _ types.Student) {
		log.Error("failed to save student", slog.String("error", err.Error()))
		f.setAlert(AlertDanger, MsgFailed)
	}

	var err error
	if f.IsEdit() {
		_, err = a.update.Mutate(ctx, candidate, query.Callbacks[types.Student, types.Student]{
			OnSuccess: func(updated, _ types.Student) {
				a.store.ReplaceAll(store.Merge(a.store.Students(), updated))
				log.Info("student updated")
				f.succeed(MsgUpdated)
			},
			OnError:   failed,
			OnSettled: settled,
		})
	} else {
		_, err = a.create.Mutate(ctx, candidate, query.Callbacks[types.Student, types.Student]{
			OnSuccess: func(created, _ types.Student) {
				a.store.AppendOne(created)
				log.Info("student created", slog.String("new_id", created.ID))
				f.succeed(MsgAdded)
			},
			OnError:   failed,
			OnSettled: settled,
		})
	}

	if err != nil {
		return OutcomeFailed
	}
	return OutcomeSucceeded
}

func (f *Form) setAlert(kind AlertKind, msg string) {
	f.mu.Lock()
	f.alert = &Alert{Kind: kind, Message: msg}
	f.mu.Unlock()
}

func (f *Form) succeed(msg string) {
	f.setAlert(AlertSuccess, msg)
	f.app.afterSuccess(f.onDone)
}

// setField applies raw input to one field of s. It reports whether field is known.
func setField(s *types.Student, field string, raw []string) bool {
	first := ""
	if len(raw) > 0 {
		first = raw[0]
	}

	switch field {
	case validation.FieldFullName:
		s.FullName = first
	case validation.FieldEmail:
		s.Email = strings.TrimSpace(first)
	case validation.FieldAge:
		// Non-numeric input becomes 0, which fails the range rule.
		age, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			age = 0
		}
		s.Age = age
	case validation.FieldGender:
		s.Gender = types.Gender(first)
	case validation.FieldCourses:
		courses := make([]types.Course, 0, len(raw))
		for _, c := range raw {
			course := types.Course(c)
			if c == "" || containsCourse(courses, course) {
				continue
			}
			courses = append(courses, course)
		}
		s.Courses = courses
	case validation.FieldConsent:
		s.Consent = checked(first)
	default:
		return false
	}
	return true
}

func containsCourse(courses []types.Course, c types.Course) bool {
	for _, have := range courses {
		if have == c {
			return true
		}
	}
	return false
}

// checked interprets an HTML checkbox value.
func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
