// Package app wires the per-session state shared by the web UI, the CLI and
// the MCP server: storage, the remote client, the food catalog, both meal
// forms with their autocomplete widgets, the new-meal draft, notifications
// and the chart cache.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/autocomplete"
	"github.com/tftdiet/tft/internal/catalog"
	"github.com/tftdiet/tft/internal/chart"
	"github.com/tftdiet/tft/internal/config"
	"github.com/tftdiet/tft/internal/db"
	"github.com/tftdiet/tft/internal/draft"
	"github.com/tftdiet/tft/internal/mealform"
	"github.com/tftdiet/tft/internal/notify"
)

// App is the application context.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Storage  *db.LocalStorage
	API      *api.Client
	Catalog  *catalog.Catalog
	NewForm  *mealform.Form
	EditForm *mealform.Form
	Draft    *draft.Persistence
	Notices  *notify.Center
	Chart    *chart.Cache

	searches map[mealform.Instance]*autocomplete.Widget
	now      func() time.Time
	mu       sync.Mutex
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.Logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New builds the application context over an initialized database. Call
// Init before serving events.
func New(cfg *config.Config, database *sql.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   slog.Default(),
		Location: loc,
		Storage:  db.NewLocalStorage(database),
		API:      api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout(), api.WithLocation(loc)),
		Notices:  notify.NewCenter(),
		Chart:    &chart.Cache{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Catalog = catalog.New(a.Storage, a.API, a.Logger.With("component", "catalog"))
	a.NewForm = mealform.NewForm(mealform.New, a.Catalog)
	a.EditForm = mealform.NewForm(mealform.Edit, a.Catalog)
	a.Draft = draft.New(a.Storage, a.NewForm, a.Catalog,
		draft.WithClock(a.now),
		draft.WithLocation(loc),
		draft.WithLogger(a.Logger.With("component", "draft")),
	)
	a.searches = map[mealform.Instance]*autocomplete.Widget{
		mealform.New:  autocomplete.New(a.Catalog, a.NewForm.Table()),
		mealform.Edit: autocomplete.New(a.Catalog, a.EditForm.Table()),
	}
	return a, nil
}

// Init loads the food catalog, then restores the new-meal draft against it
// and starts snapshotting edits. A catalog refresh failure is logged; the
// cached catalog stays in use.
func (a *App) Init(ctx context.Context) {
	if err := a.Catalog.Load(ctx); err != nil {
		a.Logger.Warn("food catalog unavailable from remote", "error", err, "cached", a.Catalog.Len())
	}
	a.Draft.Restore(ctx)
	a.Draft.Attach()
}

// Form returns the form for inst.
func (a *App) Form(inst mealform.Instance) *mealform.Form {
	if inst == mealform.Edit {
		return a.EditForm
	}
	return a.NewForm
}

// Autocomplete returns the search widget of inst.
func (a *App) Autocomplete(inst mealform.Instance) *autocomplete.Widget {
	return a.searches[inst]
}

// Now returns the current time in the configured zone.
func (a *App) Now() time.Time {
	return a.now().In(a.Location)
}

// Lock serializes one event against the session state. Every handler that
// reads or mutates forms, widgets or the catalog holds it for the whole
// event.
func (a *App) Lock() { a.mu.Lock() }

// Unlock ends an event started with Lock.
func (a *App) Unlock() { a.mu.Unlock() }
