// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-portal/internal/config"
	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"

	// Side-effect only: registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Backend.StoragePath, creates the
// students table if it does not already exist, and returns a ready-to-use
// *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	path := cfg.Backend.StoragePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   seq      : insertion order, so listings are stable
	//   id       : opaque string id handed to clients (uuid)
	//   courses  : comma-separated course names
	//   consent  : 0 / 1
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			id        TEXT    NOT NULL UNIQUE,
			full_name TEXT    NOT NULL,
			email     TEXT    NOT NULL,
			age       INTEGER NOT NULL,
			gender    TEXT    NOT NULL,
			courses   TEXT    NOT NULL,
			consent   INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

const selectColumns = "SELECT id, full_name, email, age, gender, courses, consent FROM students"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		s       types.Student
		gender  string
		courses string
	)
	if err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.Age, &gender, &courses, &s.Consent); err != nil {
		return types.Student{}, err
	}
	s.Gender = types.Gender(gender)
	s.Courses = decodeCourses(courses)
	return s, nil
}

func encodeCourses(courses []types.Course) string {
	parts := make([]string, len(courses))
	for i, c := range courses {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func decodeCourses(raw string) []types.Course {
	courses := []types.Course{}
	if raw == "" {
		return courses
	}
	for _, part := range strings.Split(raw, ",") {
		courses = append(courses, types.Course(part))
	}
	return courses
}

// CreateStudent inserts a new row with a freshly generated id.
func (s *SQLite) CreateStudent(student types.Student) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"INSERT INTO students (id, full_name, email, age, gender, courses, consent) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	student.ID = uuid.NewString()
	_, err = stmt.Exec(student.ID, student.FullName, student.Email, student.Age,
		string(student.Gender), encodeCourses(student.Courses), student.Consent)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return s.GetStudentByID(student.ID)
}

// GetStudentByID fetches exactly one row matched by id.
func (s *SQLite) GetStudentByID(id string) (types.Student, error) {
	stmt, err := s.Db.Prepare(selectColumns + " WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id: %s: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}
	return student, nil
}

// GetStudents returns all rows in insertion order.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	stmt, err := s.Db.Prepare(selectColumns + " ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces a student's data and returns the stored row.
func (s *SQLite) UpdateStudentByID(id string, student types.Student) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"UPDATE students SET full_name = ?, email = ?, age = ?, gender = ?, courses = ?, consent = ? WHERE id = ?",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(student.FullName, student.Email, student.Age,
		string(student.Gender), encodeCourses(student.Courses), student.Consent, id)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return types.Student{}, err
	}

	return s.GetStudentByID(id)
}

// DeleteStudentByID removes a student row by id.
func (s *SQLite) DeleteStudentByID(id string) error {
	stmt, err := s.Db.Prepare("DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	return requireAffected(result, id)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no student found with id: %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
