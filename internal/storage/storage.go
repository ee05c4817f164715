// Package storage defines the Storage interface, the contract any database
// backend of the development server must satisfy. Handlers depend only on
// this interface; tests pass a real SQLite file in a temp dir.
package storage

import (
	"errors"

	"github.com/aanand-mishra/student-portal/internal/types"
)

// ErrNotFound is returned when no student has the requested id.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new record and returns it with its generated id.
	// Any id on the input is ignored.
	CreateStudent(student types.Student) (types.Student, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound if absent.
	GetStudentByID(id string) (types.Student, error)

	// GetStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are none.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID replaces every field of an existing student and
	// returns the stored record. Returns ErrNotFound if absent.
	UpdateStudentByID(id string, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student. Returns ErrNotFound if absent.
	DeleteStudentByID(id string) error

	// Close releases the underlying database.
	Close() error
}
