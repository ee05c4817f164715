package portal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/student-portal/internal/query"
	"github.com/aanand-mishra/student-portal/internal/store"
	"github.com/aanand-mishra/student-portal/internal/types"
)

var (
	// ErrUnknownStudent is returned when an action names an id the list does not hold.
	ErrUnknownStudent = errors.New("portal: unknown student")
	// ErrNoPendingDelete is returned by ConfirmDelete when no confirmation is open.
	ErrNoPendingDelete = errors.New("portal: no delete awaiting confirmation")
	// ErrDeleteInFlight is returned by ConfirmDelete while a delete is still running.
	ErrDeleteInFlight = errors.New("portal: delete already in progress")
)

// Modal is the dialog currently open over the list.
type Modal int

const (
	ModalNone Modal = iota
	ModalEdit
	ModalConfirmDelete
)

// ListState is everything the list page renders.
type ListState struct {
	// Students are the rows to show.
	Students []types.Student
	// IsLoading is true while the first fetch has not resolved.
	IsLoading bool
	// Stale is true when the fetch failed and the rows come from the store.
	Stale bool
	// Err is set when the fetch failed and there is nothing to fall back to.
	Err error

	Modal    Modal
	Selected *types.Student
	EditForm *Form
}

// Empty reports whether the page should show its "no students" message.
func (s ListState) Empty() bool {
	return !s.IsLoading && s.Err == nil && len(s.Students) == 0
}

// ListView renders the student collection and owns the UI state around it:
// which row is selected and which modal is open.
type ListView struct {
	app *App

	mu         sync.Mutex
	modal      Modal
	selected   *types.Student
	editForm   *Form
	deleting   bool
	lastPushed time.Time
}

// Load reads the collection through the cache and returns the page state.
//
// Fresh data is mirrored into the store with ReplaceAll. When the read
// fails, the store's records are shown instead; only when the store is also
// empty does the state carry the error.
func (v *ListView) Load(ctx context.Context) ListState {
	a := v.app
	st := query.Fetch(ctx, a.cache, query.StudentsKey, a.api.List)

	v.mu.Lock()
	defer v.mu.Unlock()

	if st.HasData && !st.IsError && st.UpdatedAt.After(v.lastPushed) {
		a.store.ReplaceAll(st.Data)
		v.lastPushed = st.UpdatedAt
	}

	out := ListState{
		Modal:    v.modal,
		EditForm: v.editForm,
	}
	if v.selected != nil {
		sel := v.selected.Clone()
		out.Selected = &sel
	}

	switch {
	case st.IsError:
		if mirrored := a.store.Students(); len(mirrored) > 0 {
			out.Students = mirrored
			out.Stale = true
		} else {
			out.Err = st.Err
		}
	case !st.HasData:
		out.IsLoading = st.IsLoading
	default:
		out.Students = st.Data
	}
	return out
}

// lookup finds id in the cached collection, then in the store.
func (v *ListView) lookup(id string) (types.Student, bool) {
	a := v.app
	if st := query.Peek[[]types.Student](a.cache, query.StudentsKey); st.HasData {
		for _, s := range st.Data {
			if s.ID == id {
				return s.Clone(), true
			}
		}
	}
	for _, s := range a.store.Students() {
		if s.ID == id {
			return s, true
		}
	}
	return types.Student{}, false
}

// OpenEdit selects id and opens the edit modal with a pre-populated form.
// A successful submit closes the modal and clears the selection.
func (v *ListView) OpenEdit(id string) (*Form, error) {
	s, ok := v.lookup(id)
	if !ok {
		return nil, ErrUnknownStudent
	}

	form := v.app.NewForm(&s, v.CloseModal)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = &s
	v.modal = ModalEdit
	v.editForm = form
	return form, nil
}

// EditForm returns the form of the open edit modal, if any.
func (v *ListView) EditForm() *Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.modal != ModalEdit {
		return nil
	}
	return v.editForm
}

// OpenDelete selects id and opens the delete confirmation.
func (v *ListView) OpenDelete(id string) error {
	s, ok := v.lookup(id)
	if !ok {
		return ErrUnknownStudent
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = &s
	v.modal = ModalConfirmDelete
	v.editForm = nil
	return nil
}

// Confirming reports whether the delete confirmation is open for id.
func (v *ListView) Confirming(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.modal == ModalConfirmDelete && v.selected != nil && v.selected.ID == id
}

// CloseModal closes whatever is open and clears the selection. It is also
// how a delete confirmation is cancelled.
func (v *ListView) CloseModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.modal = ModalNone
	v.selected = nil
	v.editForm = nil
}

// ConfirmDelete deletes the record named in the open confirmation.
//
// On success the record is dropped from the store by id, the collection key
// is invalidated and the modal closes. On failure the error is logged and
// the state is left as it was.
func (v *ListView) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	if v.modal != ModalConfirmDelete || v.selected == nil {
		v.mu.Unlock()
		return ErrNoPendingDelete
	}
	if v.deleting {
		v.mu.Unlock()
		return ErrDeleteInFlight
	}
	id := v.selected.ID
	v.deleting = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.deleting = false
		v.mu.Unlock()
	}()

	a := v.app
	log := a.log.With(slog.String("op", "delete"), slog.String("id", id))

	_, err := a.remove.Mutate(ctx, id, query.Callbacks[string, struct{}]{
		OnSuccess: func(struct{}, string) {
			a.store.ReplaceAll(store.Without(a.store.Students(), id))
			a.cache.Invalidate(query.StudentsKey)
			v.CloseModal()
			log.Info("student deleted")
		},
		OnError: func(err error, _ string) {
			log.Error("failed to delete student", slog.String("error", err.Error()))
		},
	})
	return err
}

// Pending reports whether a delete is running.
func (v *ListView) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deleting
}
