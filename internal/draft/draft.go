// Package draft keeps the new-meal form durable across restarts by
// snapshotting it into local storage on every edit.
package draft

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tftdiet/tft/internal/api"
	"github.com/tftdiet/tft/internal/errors"
	"github.com/tftdiet/tft/internal/mealform"
)

// StorageKey is the local storage key holding the MealDraft.
const StorageKey = "tft:new-meal-form"

// DateLayout is the datetime-local form of a draft date.
const DateLayout = "2006-01-02T15:04"

// Storage is the subset of local storage a draft needs.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MealDraft is the persisted state of the new-meal form.
type MealDraft struct {
	Title string                  `json:"title"`
	Date  string                  `json:"date"`
	Foods []api.SelectedFoodEntry `json:"foods"`
}

// Persistence snapshots and restores one form.
type Persistence struct {
	store  Storage
	form   *mealform.Form
	lookup mealform.Lookup
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// Option configures a Persistence.
type Option func(*Persistence)

// WithClock sets the clock used for the default draft date.
func WithClock(now func() time.Time) Option {
	return func(p *Persistence) { p.now = now }
}

// WithLocation sets the zone the default draft date is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(p *Persistence) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithLogger sets the logger for storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Persistence) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Persistence for form. Foods are resolved through lookup on
// restore.
func New(store Storage, form *mealform.Form, lookup mealform.Lookup, opts ...Option) *Persistence {
	p := &Persistence{
		store:  store,
		form:   form,
		lookup: lookup,
		logger: slog.Default(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach snapshots the form after every user edit. Only the new instance
// is persisted; Attach on an edit form registers nothing.
func (p *Persistence) Attach() {
	if p.form.Instance() != mealform.New {
		return
	}
	p.form.OnChange(func(inst mealform.Instance) {
		if inst != mealform.New {
			return
		}
		if err := p.Snapshot(context.Background()); err != nil {
			p.logger.Warn("draft snapshot failed", "error", err)
		}
	})
}

// DefaultDate is the date a fresh draft starts with.
func (p *Persistence) DefaultDate() string {
	return p.now().In(p.loc).Format(DateLayout)
}

// Current returns the form state as a draft record. An empty date field
// takes DefaultDate.
func (p *Persistence) Current() MealDraft {
	d := MealDraft{
		Title: p.form.Title(),
		Date:  p.form.Date(),
		Foods: p.form.Entries(),
	}
	if d.Date == "" {
		d.Date = p.DefaultDate()
	}
	return d
}

// Snapshot writes the current form state to storage.
func (p *Persistence) Snapshot(ctx context.Context) error {
	data, err := json.Marshal(p.Current())
	if err != nil {
		return errors.NewInternal(err)
	}
	return p.store.SetItem(ctx, StorageKey, string(data))
}

// Restore loads the persisted draft into the form. With no usable record
// it seeds storage with the empty default form. Entries whose food is no
// longer in the catalog are dropped. Restore never fails; storage problems
// are logged and leave an empty form.
func (p *Persistence) Restore(ctx context.Context) MealDraft {
	d, ok := p.read(ctx)
	if !ok {
		p.form.Reset()
		if err := p.Snapshot(ctx); err != nil {
			p.logger.Warn("seeding empty draft failed", "error", err)
		}
		return p.Current()
	}

	items := make([]mealform.Item, 0, len(d.Foods))
	for _, e := range d.Foods {
		food, found := p.lookup.FindByID(e.FoodID)
		if !found {
			p.logger.Debug("dropping draft food missing from catalog", "food_id", e.FoodID)
			continue
		}
		items = append(items, mealform.Item{Food: food, Quantity: e.Quantity})
	}
	p.form.Populate("", d.Title, d.Date, items)
	return p.Current()
}

func (p *Persistence) read(ctx context.Context) (MealDraft, bool) {
	raw, ok, err := p.store.GetItem(ctx, StorageKey)
	if err != nil {
		p.logger.Warn("reading draft failed, starting empty", "error", err)
		return MealDraft{}, false
	}
	if !ok {
		return MealDraft{}, false
	}
	var d MealDraft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		p.logger.Warn("discarding corrupt draft", "error", err)
		return MealDraft{}, false
	}
	return d, true
}

// Clear erases the persisted draft and empties the form.
func (p *Persistence) Clear(ctx context.Context) error {
	p.form.Reset()
	return p.store.RemoveItem(ctx, StorageKey)
}
