// Package student contains the HTTP handlers of the development backend's
// /students resource.
//
// Handlers are built with the closure/factory pattern: each factory takes
// its dependencies once at startup and returns the http.HandlerFunc the
// router calls on every request.
//
//	router.HandleFunc("POST /students", student.New(storage))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/utils/response"
	"github.com/aanand-mishra/student-portal/internal/validation"
)

// decode reads a Student from the request body and validates it. On failure
// it writes the error response and returns false.
func decode(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return types.Student{}, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return types.Student{}, false
	}

	if errs := validation.Validate(student); !errs.Valid() {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(errs))
		return types.Student{}, false
	}
	return student, true
}

// writeStorageError maps storage.ErrNotFound to 404 and anything else to 500.
func writeStorageError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
	}
	response.WriteJSON(w, status, response.GeneralError(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
//
// Request body: a Student without id.
// Success response (201 Created): the stored Student, including its new id.
// Errors: 400 for an empty, malformed or invalid body; 500 for database errors.
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decode(w, r)
		if !ok {
			return
		}

		created, err := storage.CreateStudent(student)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /students/{id}
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := storage.GetStudentByID(id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /students
//
// Returns a JSON array of all students, [] (not null) when there are none.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Replaces ALL fields of an existing student. An id in the body is ignored;
// the path decides which record changes.
//
// Success response (200 OK): the updated Student.
// Errors: 400 for a bad body, 404 for an unknown id, 500 for database errors.
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		student, ok := decode(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateStudentByID(id, student)
		if err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /students/{id}
//
// Success response (200 OK): { "status": "deleted" }
// Errors: 404 for an unknown id, 500 for database errors.
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := storage.DeleteStudentByID(id); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			writeStorageError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Register mounts every /students route on mux.
func Register(mux *http.ServeMux, storage storage.Storage) {
	mux.HandleFunc("POST /students", New(storage))
	mux.HandleFunc("GET /students", GetList(storage))
	mux.HandleFunc("GET /students/{id}", GetByID(storage))
	mux.HandleFunc("PUT /students/{id}", Update(storage))
	mux.HandleFunc("DELETE /students/{id}", Delete(storage))
}
