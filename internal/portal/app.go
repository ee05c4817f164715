// Package portal holds the presentation logic of the student portal: the
// list view, the registration/edit form, and the navigation between them.
//
// Nothing here knows about HTML. The HTTP handlers in
// internal/http/handlers/web render the state these types expose.
package portal

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/student-portal/internal/query"
	"github.com/aanand-mishra/student-portal/internal/store"
	"github.com/aanand-mishra/student-portal/internal/types"
)

// DefaultSuccessDelay is how long a success message stays up before the
// form's completion callback runs.
const DefaultSuccessDelay = 1500 * time.Millisecond

// API is the remote-access layer the portal depends on.
// *studentapi.Client satisfies it.
type API interface {
	List(ctx context.Context) ([]types.Student, error)
	Create(ctx context.Context, candidate types.Student) (types.Student, error)
	Update(ctx context.Context, record types.Student) (types.Student, error)
	Remove(ctx context.Context, id string) error
}

// Tab is one of the two top-level views.
type Tab string

const (
	TabRegister Tab = "register"
	TabView     Tab = "view"
)

// Config wires an App.
type Config struct {
	API          API
	Cache        *query.Client
	Store        *store.Store
	Log          *slog.Logger
	SuccessDelay time.Duration
}

// App owns the shared client state and the views built on it.
type App struct {
	api          API
	cache        *query.Client
	store        *store.Store
	log          *slog.Logger
	successDelay time.Duration

	create *query.Mutation[types.Student, types.Student]
	update *query.Mutation[types.Student, types.Student]
	remove *query.Mutation[string, struct{}]

	list *ListView

	mu       sync.Mutex
	tab      Tab
	register *Form
}

// New builds an App. Cache and Store are created when nil; a nil logger
// discards output. A zero SuccessDelay means DefaultSuccessDelay and a
// negative one runs completion callbacks immediately.
func New(cfg Config) *App {
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache := cfg.Cache
	if cache == nil {
		cache = query.NewClient(log)
	}
	st := cfg.Store
	if st == nil {
		st = store.New()
	}
	delay := cfg.SuccessDelay
	if delay == 0 {
		delay = DefaultSuccessDelay
	}

	a := &App{
		api:          cfg.API,
		cache:        cache,
		store:        st,
		log:          log,
		successDelay: delay,
		tab:          TabRegister,
	}

	a.create = query.NewMutation(a.api.Create)
	a.update = query.NewMutation(a.api.Update)
	a.remove = query.NewMutation(func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, a.api.Remove(ctx, id)
	})

	a.list = &ListView{app: a}
	a.register = a.newRegisterForm()
	return a
}

// Store returns the global store.
func (a *App) Store() *store.Store { return a.store }

// Cache returns the read cache.
func (a *App) Cache() *query.Client { return a.cache }

// List returns the list view.
func (a *App) List() *ListView { return a.list }

// SuccessDelay is the pause between a successful submit and its completion callback.
func (a *App) SuccessDelay() time.Duration { return a.successDelay }

// ActiveTab returns the tab currently shown.
func (a *App) ActiveTab() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tab
}

// SetTab switches the active tab.
func (a *App) SetTab(t Tab) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tab = t
}

// RegisterForm returns the form shown on the Register tab.
func (a *App) RegisterForm() *Form {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.register
}

// newRegisterForm builds a blank form whose completion switches to the View
// tab and leaves a fresh blank form behind.
func (a *App) newRegisterForm() *Form {
	return a.NewForm(nil, func() {
		a.mu.Lock()
		a.tab = TabView
		a.register = a.newRegisterForm()
		a.mu.Unlock()
	})
}

// afterSuccess runs fn once the success message has been shown long enough.
func (a *App) afterSuccess(fn func()) {
	if fn == nil {
		return
	}
	if a.successDelay < 0 {
		fn()
		return
	}
	time.AfterFunc(a.successDelay, fn)
}
