package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-portal/internal/query"
	"github.com/aanand-mishra/student-portal/internal/studentapi"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/validation"
)

// =============================================================================
// Fake backend
// =============================================================================

type call struct {
	Op string
	ID string
}

// fakeAPI is an in-memory backend that records every call.
type fakeAPI struct {
	mu       sync.Mutex
	records  []types.Student
	nextID   int
	calls    []call
	failList bool
	failNext bool
}

var errTransport = &studentapi.NetworkError{Op: "test", Err: errors.New("connection refused")}

func (f *fakeAPI) record(op, id string) {
	f.calls = append(f.calls, call{Op: op, ID: id})
}

func (f *fakeAPI) takeFailure() bool {
	fail := f.failNext
	f.failNext = false
	return fail
}

func (f *fakeAPI) List(context.Context) ([]types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list", "")
	if f.failList {
		return nil, errTransport
	}
	out := make([]types.Student, len(f.records))
	for i, r := range f.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, s types.Student) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create", "")
	if f.takeFailure() {
		return types.Student{}, errTransport
	}
	f.nextID++
	s.ID = fmt.Sprintf("id-%d", f.nextID)
	f.records = append(f.records, s.Clone())
	return s, nil
}

func (f *fakeAPI) Update(_ context.Context, s types.Student) (types.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update", s.ID)
	if f.takeFailure() {
		return types.Student{}, errTransport
	}
	for i, r := range f.records {
		if r.ID == s.ID {
			f.records[i] = s.Clone()
			return s, nil
		}
	}
	return types.Student{}, &studentapi.NetworkError{Op: "update", StatusCode: 404, Err: studentapi.ErrUnexpectedStatus}
}

func (f *fakeAPI) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("remove", id)
	if f.takeFailure() {
		return errTransport
	}
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &studentapi.NetworkError{Op: "remove", StatusCode: 404, Err: studentapi.ErrUnexpectedStatus}
}

func (f *fakeAPI) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeAPI) seed(students ...types.Student) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range students {
		f.nextID++
		s.ID = fmt.Sprintf("id-%d", f.nextID)
		f.records = append(f.records, s)
	}
}

func newTestApp(api *fakeAPI) *App {
	return New(Config{API: api, SuccessDelay: -1})
}

func ann() types.Student {
	return types.Student{
		FullName: "Ann Lee",
		Email:    "ann@x.com",
		Age:      20,
		Gender:   types.GenderFemale,
		Courses:  []types.Course{types.CourseMath},
		Consent:  true,
	}
}

func named(name string) types.Student {
	s := ann()
	s.FullName = name
	return s
}

func fill(f *Form, s types.Student) {
	courses := make([]string, len(s.Courses))
	for i, c := range s.Courses {
		courses[i] = string(c)
	}
	in := url.Values{
		"fullName": {s.FullName},
		"email":    {s.Email},
		"age":      {fmt.Sprint(s.Age)},
		"gender":   {string(s.Gender)},
		"courses":  courses,
	}
	if s.Consent {
		in.Set("consent", "on")
	}
	f.Fill(in)
}

// =============================================================================
// Form
// =============================================================================

func TestNewForm_Defaults(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	f := app.NewForm(nil, nil)

	v := f.Values()
	assert.False(t, f.IsEdit())
	assert.Equal(t, 16, v.Age)
	assert.Equal(t, types.GenderMale, v.Gender)
	assert.Empty(t, v.Courses)
	assert.False(t, v.Consent)

	// Errors exist but are hidden until a field is touched.
	assert.True(t, f.Errors().Has(validation.FieldFullName))
	assert.Empty(t, f.FieldError(validation.FieldFullName))
	f.Blur(validation.FieldFullName)
	assert.Equal(t, "Full Name is required", f.FieldError(validation.FieldFullName))
}

func TestNewForm_PrepopulatedCopy(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	existing := ann()
	existing.ID = "id-9"
	f := app.NewForm(&existing, nil)

	assert.True(t, f.IsEdit())
	assert.Equal(t, "id-9", f.ID())
	assert.Equal(t, "Ann Lee", f.Values().FullName)

	f.Change(validation.FieldCourses, "Physics", "CS")
	assert.Equal(t, []types.Course{types.CourseMath}, existing.Courses, "existing record must not change")
}

func TestForm_ChangeRevalidates(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	f := app.NewForm(nil, nil)

	f.Change(validation.FieldAge, "15")
	assert.Equal(t, "Age must be between 16 and 40", f.FieldError(validation.FieldAge))
	f.Change(validation.FieldAge, "abc")
	assert.Equal(t, "Age must be between 16 and 40", f.FieldError(validation.FieldAge))
	f.Change(validation.FieldAge, "40")
	assert.Empty(t, f.FieldError(validation.FieldAge))

	f.Change(validation.FieldCourses, "Math", "Math", "")
	assert.Equal(t, []types.Course{types.CourseMath}, f.Values().Courses)

	f.Change(validation.FieldConsent, "on")
	assert.True(t, f.Values().Consent)
	f.Change(validation.FieldConsent)
	assert.False(t, f.Values().Consent)
	assert.Equal(t, "Consent is required", f.FieldError(validation.FieldConsent))

	f.Change("unknown", "x")
	assert.Empty(t, f.FieldError("unknown"))
}

// Scenario A: a valid registration creates the record and appends it to the store.
func TestSubmit_CreateAppendsToStore(t *testing.T) {
	api := &fakeAPI{}
	app := newTestApp(api)

	var done bool
	f := app.NewForm(nil, func() { done = true })
	fill(f, ann())

	require.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))

	assert.Equal(t, []call{{Op: "create"}}, api.Calls())
	got := app.Store().Students()
	require.Len(t, got, 1)
	assert.Equal(t, "id-1", got[0].ID)
	assert.Equal(t, "Ann Lee", got[0].FullName)
	assert.Equal(t, "ann@x.com", got[0].Email)
	assert.Equal(t, 20, got[0].Age)
	assert.Equal(t, types.GenderFemale, got[0].Gender)
	assert.Equal(t, []types.Course{types.CourseMath}, got[0].Courses)
	assert.True(t, got[0].Consent)

	require.NotNil(t, f.Alert())
	assert.Equal(t, AlertSuccess, f.Alert().Kind)
	assert.Equal(t, MsgAdded, f.Alert().Message)
	assert.True(t, done)
	assert.False(t, f.Pending())
}

// Scenario B: invalid values never reach the backend.
func TestSubmit_InvalidBlocksNetwork(t *testing.T) {
	api := &fakeAPI{}
	app := newTestApp(api)

	f := app.NewForm(nil, func() { t.Fatal("completion must not run") })
	s := ann()
	s.Age = 15
	fill(f, s)

	assert.Equal(t, OutcomeInvalid, f.Submit(context.Background()))
	assert.Empty(t, api.Calls())
	assert.Empty(t, app.Store().Students())
	assert.True(t, f.Errors().Has(validation.FieldAge))
	assert.Equal(t, "Age must be between 16 and 40", f.FieldError(validation.FieldAge))
	assert.Nil(t, f.Alert())
}

func TestSubmit_UntouchedDefaultsShowAllErrors(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	f := app.NewForm(nil, nil)

	assert.Equal(t, OutcomeInvalid, f.Submit(context.Background()))
	for _, field := range []string{validation.FieldFullName, validation.FieldEmail, validation.FieldCourses, validation.FieldConsent} {
		assert.NotEmpty(t, f.FieldError(field), field)
	}
}

func TestSubmit_FailureKeepsValues(t *testing.T) {
	api := &fakeAPI{failNext: true}
	app := newTestApp(api)

	f := app.NewForm(nil, func() { t.Fatal("completion must not run") })
	fill(f, ann())

	assert.Equal(t, OutcomeFailed, f.Submit(context.Background()))
	require.NotNil(t, f.Alert())
	assert.Equal(t, AlertDanger, f.Alert().Kind)
	assert.Equal(t, MsgFailed, f.Alert().Message)
	assert.Equal(t, "Ann Lee", f.Values().FullName)
	assert.Empty(t, app.Store().Students())

	// No automatic retry; resubmitting is the user's call.
	assert.Len(t, api.Calls(), 1)
	assert.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))
	assert.Len(t, app.Store().Students(), 1)
}

func TestSubmit_InvalidatesCacheWhenSettled(t *testing.T) {
	api := &fakeAPI{}
	app := newTestApp(api)
	app.List().Load(context.Background())

	f := app.NewForm(nil, nil)
	fill(f, ann())
	require.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))

	st := app.List().Load(context.Background())
	require.Len(t, st.Students, 1)

	lists := 0
	for _, c := range api.Calls() {
		if c.Op == "list" {
			lists++
		}
	}
	assert.Equal(t, 2, lists, "submit should force a refetch")
}

// Scenario C: editing an existing record issues an update and merges it into the store.
func TestSubmit_UpdateMergesIntoStore(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("Bob Ray"), ann())
	app := newTestApp(api)
	app.List().Load(context.Background())

	f, err := app.List().OpenEdit("id-2")
	require.NoError(t, err)
	assert.Equal(t, ModalEdit, app.List().Load(context.Background()).Modal)

	f.Change(validation.FieldFullName, "Ann Smith")
	require.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))

	calls := api.Calls()
	assert.Equal(t, call{Op: "update", ID: "id-2"}, calls[len(calls)-1])

	got := app.Store().Students()
	require.Len(t, got, 2)
	assert.Equal(t, "id-2", got[1].ID)
	assert.Equal(t, "Ann Smith", got[1].FullName)
	assert.Equal(t, MsgUpdated, f.Alert().Message)

	// Completion closes the modal and clears the selection.
	st := app.List().Load(context.Background())
	assert.Equal(t, ModalNone, st.Modal)
	assert.Nil(t, st.Selected)
	assert.Nil(t, app.List().EditForm())
}

func TestSubmit_CompletionWaitsForDelay(t *testing.T) {
	app := New(Config{API: &fakeAPI{}, SuccessDelay: 30 * time.Millisecond})
	done := make(chan struct{})
	f := app.NewForm(nil, func() { close(done) })
	fill(f, ann())

	start := time.Now()
	require.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))
	select {
	case <-done:
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("completion callback never ran")
	}
}

func TestRegisterForm_CompletionSwitchesTab(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	assert.Equal(t, TabRegister, app.ActiveTab())

	f := app.RegisterForm()
	fill(f, ann())
	require.Equal(t, OutcomeSucceeded, f.Submit(context.Background()))

	assert.Equal(t, TabView, app.ActiveTab())
	next := app.RegisterForm()
	assert.NotSame(t, f, next)
	assert.Empty(t, next.Values().FullName)
}

// =============================================================================
// List view
// =============================================================================

func TestLoad_MirrorsIntoStore(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"), named("B B"))
	app := newTestApp(api)

	st := app.List().Load(context.Background())
	assert.Len(t, st.Students, 2)
	assert.False(t, st.Stale)
	assert.NoError(t, st.Err)
	assert.Len(t, app.Store().Students(), 2)

	// A cached read does not overwrite later store actions.
	app.Store().AppendOne(named("C C"))
	app.List().Load(context.Background())
	assert.Len(t, app.Store().Students(), 3)
}

func TestLoad_Empty(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	st := app.List().Load(context.Background())
	assert.True(t, st.Empty())
}

// Scenario E: a failed read falls back to the store, or shows the error when the store is empty.
func TestLoad_FailureFallsBackToStore(t *testing.T) {
	api := &fakeAPI{failList: true}
	app := newTestApp(api)
	app.Store().ReplaceAll([]types.Student{named("A A"), named("B B"), named("C C")})

	st := app.List().Load(context.Background())
	assert.True(t, st.Stale)
	assert.NoError(t, st.Err)
	assert.Len(t, st.Students, 3)
	assert.False(t, st.Empty())
}

func TestLoad_FailureWithEmptyStoreShowsError(t *testing.T) {
	app := newTestApp(&fakeAPI{failList: true})

	st := app.List().Load(context.Background())
	require.Error(t, st.Err)
	assert.Contains(t, st.Err.Error(), "connection refused")
	assert.Empty(t, st.Students)
	assert.False(t, st.Empty())
}

// Scenario D: confirmed delete removes the record and invalidates the key.
func TestConfirmDelete(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"), named("B B"))
	app := newTestApp(api)
	app.List().Load(context.Background())

	require.NoError(t, app.List().OpenDelete("id-1"))
	st := app.List().Load(context.Background())
	assert.Equal(t, ModalConfirmDelete, st.Modal)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "A A", st.Selected.FullName)

	require.NoError(t, app.List().ConfirmDelete(context.Background()))

	calls := api.Calls()
	assert.Equal(t, call{Op: "remove", ID: "id-1"}, calls[len(calls)-1])
	for _, s := range app.Store().Students() {
		assert.NotEqual(t, "id-1", s.ID)
	}
	assert.Equal(t, ModalNone, app.List().Load(context.Background()).Modal)

	// Invalidation forced a refetch on the Load above.
	calls = api.Calls()
	assert.Equal(t, "list", calls[len(calls)-1].Op)
	assert.False(t, query.Peek[[]types.Student](app.Cache(), query.StudentsKey).IsError)
}

func TestConfirmDelete_FailureLeavesState(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"))
	app := newTestApp(api)
	app.List().Load(context.Background())
	require.NoError(t, app.List().OpenDelete("id-1"))

	api.failNext = true
	err := app.List().ConfirmDelete(context.Background())
	require.Error(t, err)

	assert.Len(t, app.Store().Students(), 1)
	st := app.List().Load(context.Background())
	assert.Equal(t, ModalConfirmDelete, st.Modal)
	assert.Len(t, st.Students, 1)
}

func TestConfirming(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"), named("B B"))
	app := newTestApp(api)
	app.List().Load(context.Background())

	assert.False(t, app.List().Confirming("id-1"))

	require.NoError(t, app.List().OpenDelete("id-1"))
	assert.True(t, app.List().Confirming("id-1"))
	assert.False(t, app.List().Confirming("id-2"))

	_, err := app.List().OpenEdit("id-1")
	require.NoError(t, err)
	assert.False(t, app.List().Confirming("id-1"))

	require.NoError(t, app.List().OpenDelete("id-2"))
	app.List().CloseModal()
	assert.False(t, app.List().Confirming("id-2"))
}

func TestCancelDelete(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"))
	app := newTestApp(api)
	app.List().Load(context.Background())

	require.NoError(t, app.List().OpenDelete("id-1"))
	app.List().CloseModal()

	assert.ErrorIs(t, app.List().ConfirmDelete(context.Background()), ErrNoPendingDelete)
	assert.Len(t, app.Store().Students(), 1)
	for _, c := range api.Calls() {
		assert.NotEqual(t, "remove", c.Op)
	}
}

func TestRemoveAlreadyRemovedID(t *testing.T) {
	api := &fakeAPI{}
	api.seed(named("A A"), named("B B"))
	app := newTestApp(api)
	app.List().Load(context.Background())

	require.NoError(t, app.List().OpenDelete("id-1"))
	require.NoError(t, app.List().ConfirmDelete(context.Background()))

	// The record is gone server-side; a second delete fails without corrupting the store.
	app.Store().AppendOne(func() types.Student { s := named("A A"); s.ID = "id-1"; return s }())
	require.NoError(t, app.List().OpenDelete("id-1"))
	err := app.List().ConfirmDelete(context.Background())
	require.Error(t, err)

	var netErr *studentapi.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.NotFound())

	app.List().CloseModal()
	app.Cache().Invalidate(query.StudentsKey)
	st := app.List().Load(context.Background())
	for _, s := range st.Students {
		assert.NotEqual(t, "id-1", s.ID)
	}
	for _, s := range app.Store().Students() {
		assert.NotEqual(t, "id-1", s.ID)
	}
}

func TestOpenUnknownStudent(t *testing.T) {
	app := newTestApp(&fakeAPI{})
	app.List().Load(context.Background())

	_, err := app.List().OpenEdit("nope")
	assert.ErrorIs(t, err, ErrUnknownStudent)
	assert.ErrorIs(t, app.List().OpenDelete("nope"), ErrUnknownStudent)
}
