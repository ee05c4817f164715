// Package store holds the portal's canonical, UI-wide copy of the student
// collection.
//
// The collection changes only through two actions, ReplaceAll and AppendOne,
// and is read through the Students selector. Every producer (fetch
// completion, create, update, delete) funnels through those two actions.
// The backend remains the source of truth; this is a mirror.
package store

import (
	"sync"

	"github.com/aanand-mishra/student-portal/internal/types"
)

// Action names passed to listeners.
const (
	ActionReplaceAll = "replaceAll"
	ActionAppendOne  = "appendOne"
)

// Listener is notified after every action with the action name and the
// resulting collection. It must not call back into the store's actions.
type Listener func(action string, students []types.Student)

// Store is safe for concurrent use. Each action is atomic; a read followed
// by a write is not.
type Store struct {
	mu        sync.RWMutex
	students  []types.Student
	listeners []Listener
}

// New returns an empty store.
func New() *Store {
	return &Store{students: []types.Student{}}
}

// ReplaceAll overwrites the entire collection.
func (s *Store) ReplaceAll(records []types.Student) {
	next := cloneAll(records)

	s.mu.Lock()
	s.students = next
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, ActionReplaceAll, next)
}

// AppendOne adds record to the end of the collection. Records are not
// deduplicated by id: appending an id that is already present yields two
// entries with that id.
func (s *Store) AppendOne(record types.Student) {
	s.mu.Lock()
	next := make([]types.Student, len(s.students), len(s.students)+1)
	copy(next, s.students)
	next = append(next, record.Clone())
	s.students = next
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, ActionAppendOne, next)
}

// Students returns a copy of the current collection.
func (s *Store) Students() []types.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.students)
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// Subscribe registers l for every subsequent action.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(listeners []Listener, action string, students []types.Student) {
	for _, l := range listeners {
		l(action, cloneAll(students))
	}
}

func cloneAll(in []types.Student) []types.Student {
	out := make([]types.Student, len(in))
	for i, st := range in {
		out[i] = st.Clone()
	}
	return out
}

// Without returns a copy of students minus every record whose ID is id.
func Without(students []types.Student, id string) []types.Student {
	out := make([]types.Student, 0, len(students))
	for _, st := range students {
		if st.ID != id {
			out = append(out, st)
		}
	}
	return out
}

// Merge returns a copy of students with every record whose ID matches
// record.ID replaced by record. If none matches, record is appended.
func Merge(students []types.Student, record types.Student) []types.Student {
	out := make([]types.Student, 0, len(students)+1)
	found := false
	for _, st := range students {
		if record.ID != "" && st.ID == record.ID {
			if !found {
				out = append(out, record)
				found = true
			}
			continue
		}
		out = append(out, st)
	}
	if !found {
		out = append(out, record)
	}
	return out
}
