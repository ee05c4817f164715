// Package web serves the portal's HTML pages.
//
// Handlers follow the same closure/factory pattern as the backend's student
// handlers: each factory captures the *portal.App and the parsed views once
// and returns the http.HandlerFunc registered on the router.
//
// Route table:
//
//	GET  /                      → redirect to the active tab
//	GET  /register              → registration form
//	POST /register              → submit a new student
//	GET  /students              → student list
//	GET  /students/{id}/edit    → list with the edit modal open
//	POST /students/{id}/edit    → submit the edit
//	GET  /students/{id}/delete  → list with the delete confirmation open
//	POST /students/{id}/delete  → confirm the delete
//	POST /students/close        → close any modal
//	POST /validate              → field errors for the posted values, as JSON
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-portal/internal/portal"
	"github.com/aanand-mishra/student-portal/internal/utils/response"
)

const (
	registerPath = "/register"
	listPath     = "/students"
)

// Register mounts every portal route on mux.
func Register(mux *http.ServeMux, app *portal.App, views *Views) {
	mux.HandleFunc("GET /{$}", Index(app))
	mux.HandleFunc("GET /register", RegisterPage(app, views))
	mux.HandleFunc("POST /register", RegisterSubmit(app, views))
	mux.HandleFunc("GET /students", ListPage(app, views))
	mux.HandleFunc("GET /students/{id}/edit", EditOpen(app, views))
	mux.HandleFunc("POST /students/{id}/edit", EditSubmit(app, views))
	mux.HandleFunc("GET /students/{id}/delete", DeleteOpen(app, views))
	mux.HandleFunc("POST /students/{id}/delete", DeleteConfirm(app))
	mux.HandleFunc("POST /students/close", CloseModal(app))
	mux.HandleFunc("POST /validate", Validate(app))
}

func render(w http.ResponseWriter, views *Views, page string, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.Render(w, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()))
	}
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// Index handles GET / by redirecting to the active tab.
func Index(app *portal.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.ActiveTab() == portal.TabView {
			redirect(w, r, listPath)
			return
		}
		redirect(w, r, registerPath)
	}
}

// RegisterPage handles GET /register.
func RegisterPage(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.SetTab(portal.TabRegister)
		render(w, views, "register", http.StatusOK, pageData{
			Tab:  portal.TabRegister,
			Form: newFormView(app.RegisterForm(), registerPath, "Register Student"),
		})
	}
}

// RegisterSubmit handles POST /register.
//
// On success the page shows the alert and moves to the list once the
// success delay has passed; otherwise the form is shown again with its
// errors or failure alert and the values kept.
func RegisterSubmit(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		form := app.RegisterForm()
		form.Fill(r.PostForm)
		outcome := form.Submit(r.Context())

		data := pageData{
			Tab:  portal.TabRegister,
			Form: newFormView(form, registerPath, "Register Student"),
		}
		status := http.StatusOK
		switch outcome {
		case portal.OutcomeSucceeded:
			data.RedirectTo = listPath
			data.RedirectAfter = app.SuccessDelay()
		case portal.OutcomeInvalid:
			status = http.StatusUnprocessableEntity
		case portal.OutcomeFailed:
			status = http.StatusBadGateway
		case portal.OutcomeBusy:
			status = http.StatusConflict
		}
		render(w, views, "register", status, data)
	}
}

// ListPage handles GET /students.
func ListPage(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderList(w, r, app, views, http.StatusOK, pageData{})
	}
}

func renderList(w http.ResponseWriter, r *http.Request, app *portal.App, views *Views, status int, data pageData) {
	app.SetTab(portal.TabView)
	st := app.List().Load(r.Context())
	if st.Err != nil && status == http.StatusOK {
		status = http.StatusBadGateway
	}

	data.Tab = portal.TabView
	data.List = newListView(st, app.List().Pending())
	render(w, views, "list", status, data)
}

// EditOpen handles GET /students/{id}/edit.
func EditOpen(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Make sure the collection is loaded before looking the id up.
		app.List().Load(r.Context())

		if _, err := app.List().OpenEdit(r.PathValue("id")); err != nil {
			notFound(w, r, app, views, err)
			return
		}
		renderList(w, r, app, views, http.StatusOK, pageData{})
	}
}

// EditSubmit handles POST /students/{id}/edit.
func EditSubmit(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		form := app.List().EditForm()
		if form == nil || form.ID() != id {
			redirect(w, r, listPath)
			return
		}
		if err := r.ParseForm(); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		form.Fill(r.PostForm)
		data := pageData{}
		status := http.StatusOK
		switch form.Submit(r.Context()) {
		case portal.OutcomeSucceeded:
			data.RedirectTo = listPath
			data.RedirectAfter = app.SuccessDelay()
		case portal.OutcomeInvalid:
			status = http.StatusUnprocessableEntity
		case portal.OutcomeFailed:
			status = http.StatusBadGateway
		case portal.OutcomeBusy:
			status = http.StatusConflict
		}
		renderList(w, r, app, views, status, data)
	}
}

// DeleteOpen handles GET /students/{id}/delete.
func DeleteOpen(app *portal.App, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.List().Load(r.Context())

		if err := app.List().OpenDelete(r.PathValue("id")); err != nil {
			notFound(w, r, app, views, err)
			return
		}
		renderList(w, r, app, views, http.StatusOK, pageData{})
	}
}

// DeleteConfirm handles POST /students/{id}/delete.
//
// The outcome is reflected by the list it redirects to; failures are logged
// by the list view and leave the confirmation open.
func DeleteConfirm(app *portal.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.List().Confirming(r.PathValue("id")) {
			redirect(w, r, listPath)
			return
		}

		if err := app.List().ConfirmDelete(r.Context()); err != nil && !errors.Is(err, portal.ErrDeleteInFlight) {
			slog.Warn("delete not confirmed",
				slog.String("id", r.PathValue("id")),
				slog.String("error", err.Error()))
		}
		redirect(w, r, listPath)
	}
}

// CloseModal handles POST /students/close. Closing the delete confirmation
// this way cancels the delete.
func CloseModal(app *portal.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.List().CloseModal()
		redirect(w, r, listPath)
	}
}

// Validate handles POST /validate and returns the field → message map for
// the posted values. The page decides which fields to show.
func Validate(app *portal.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		form := app.NewForm(nil, nil)
		form.Fill(r.PostForm)
		response.WriteJSON(w, http.StatusOK, form.Errors())
	}
}

func notFound(w http.ResponseWriter, r *http.Request, app *portal.App, views *Views, err error) {
	slog.Info("student not in list",
		slog.String("id", r.PathValue("id")),
		slog.String("error", err.Error()))
	renderList(w, r, app, views, http.StatusNotFound, pageData{})
}
