package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aanand-mishra/student-portal/internal/portal"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// Views holds the parsed page templates.
type Views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"joinCourses": func(courses []types.Course) string {
		parts := make([]string, len(courses))
		for i, c := range courses {
			parts[i] = string(c)
		}
		return strings.Join(parts, ", ")
	},
	"pathEscape": url.PathEscape,
}

// NewViews parses every page against the shared layout and form partial.
func NewViews() (*Views, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/form.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template)}
	for _, name := range []string{"register", "list"} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render writes page with data.
func (v *Views) Render(w io.Writer, page string, data pageData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// pageData is the root value every page template receives.
type pageData struct {
	Tab  portal.Tab
	Form *formView
	List *listView

	// RedirectTo, when set, is followed after RedirectAfter.
	RedirectTo    string
	RedirectAfter time.Duration
}

// RedirectMillis is RedirectAfter in milliseconds, for the page script.
func (p pageData) RedirectMillis() int64 { return p.RedirectAfter.Milliseconds() }

// RedirectSeconds is RedirectAfter rounded up to whole seconds, for the
// meta-refresh fallback.
func (p pageData) RedirectSeconds() int64 {
	return int64((p.RedirectAfter + time.Second - 1) / time.Second)
}

type formView struct {
	Action  string
	Title   string
	Values  types.Student
	Errors  map[string]string
	Alert   *portal.Alert
	Pending bool
	Genders []types.Gender
	Courses []types.Course
}

func newFormView(f *portal.Form, action, title string) *formView {
	errs := make(map[string]string)
	for _, field := range validation.Fields {
		if msg := f.FieldError(field); msg != "" {
			errs[field] = msg
		}
	}
	return &formView{
		Action:  action,
		Title:   title,
		Values:  f.Values(),
		Errors:  errs,
		Alert:   f.Alert(),
		Pending: f.Pending(),
		Genders: types.Genders,
		Courses: types.Courses,
	}
}

type listView struct {
	State         portal.ListState
	EditOpen      bool
	DeleteOpen    bool
	DeletePending bool
	EditForm      *formView
}

func newListView(st portal.ListState, deletePending bool) *listView {
	lv := &listView{
		State:         st,
		EditOpen:      st.Modal == portal.ModalEdit && st.EditForm != nil,
		DeleteOpen:    st.Modal == portal.ModalConfirmDelete && st.Selected != nil,
		DeletePending: deletePending,
	}
	if lv.EditOpen {
		lv.EditForm = newFormView(st.EditForm, "/students/"+url.PathEscape(st.EditForm.ID())+"/edit", "")
	}
	return lv
}
