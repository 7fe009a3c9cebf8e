// Package catalog is a read-through cache of the remote food list, persisted
// in local storage so the app starts with the last known catalog.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/tftdiet/tft/internal/api"
)

// StorageKey is the local storage key holding the cached []api.Food.
const StorageKey = "foods"

// Storage is the subset of local storage the catalog needs.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// Source fetches the authoritative catalog.
type Source interface {
	Foods(ctx context.Context) ([]api.Food, error)
}

// Catalog holds the food list for one session.
type Catalog struct {
	store     Storage
	source    Source
	logger    *slog.Logger
	foods     []api.Food
	byID      map[api.ID]int
	refreshed bool
}

// New creates an empty catalog. Call Load before use.
func New(store Storage, source Source, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		store:  store,
		source: source,
		logger: logger,
		byID:   map[api.ID]int{},
	}
}

// Load populates the catalog from local storage and, once per session,
// refreshes it from the remote source. A failed refresh keeps the cached copy
// and is reported as an error the caller may log; the catalog stays usable.
func (c *Catalog) Load(ctx context.Context) error {
	if len(c.foods) == 0 {
		c.loadCached(ctx)
	}
	if c.refreshed {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the catalog from the remote source and persists it.
func (c *Catalog) Refresh(ctx context.Context) error {
	foods, err := c.source.Foods(ctx)
	if err != nil {
		c.logger.Warn("food catalog refresh failed, using cached copy",
			"error", err, "cached", len(c.foods))
		return err
	}

	c.set(foods)
	c.refreshed = true

	data, err := json.Marshal(c.foods)
	if err != nil {
		return err
	}
	if err := c.store.SetItem(ctx, StorageKey, string(data)); err != nil {
		c.logger.Warn("failed to persist food catalog", "error", err)
	}
	c.logger.Debug("food catalog refreshed", "foods", len(c.foods))
	return nil
}

// loadCached reads the persisted copy. Missing or corrupt data leaves the
// catalog empty.
func (c *Catalog) loadCached(ctx context.Context) {
	raw, ok, err := c.store.GetItem(ctx, StorageKey)
	if err != nil {
		c.logger.Warn("failed to read cached food catalog", "error", err)
		return
	}
	if !ok {
		return
	}

	var foods []api.Food
	if err := json.Unmarshal([]byte(raw), &foods); err != nil {
		c.logger.Warn("ignoring corrupt cached food catalog", "error", err)
		return
	}
	c.set(foods)
}

func (c *Catalog) set(foods []api.Food) {
	c.foods = make([]api.Food, 0, len(foods))
	c.byID = make(map[api.ID]int, len(foods))
	for _, f := range foods {
		if f.ID == "" {
			continue
		}
		if _, dup := c.byID[f.ID]; dup {
			continue
		}
		c.byID[f.ID] = len(c.foods)
		c.foods = append(c.foods, f)
	}
}

// FindByID looks up a food synchronously.
func (c *Catalog) FindByID(id api.ID) (api.Food, bool) {
	i, ok := c.byID[id]
	if !ok {
		return api.Food{}, false
	}
	return c.foods[i], true
}

// All returns the catalog in source order.
func (c *Catalog) All() []api.Food {
	return append([]api.Food(nil), c.foods...)
}

// Len returns the number of foods in the catalog.
func (c *Catalog) Len() int {
	return len(c.foods)
}

// Search returns foods whose name contains query, case-insensitively.
// The query is matched as typed, whitespace included. An empty query
// matches nothing.
func (c *Catalog) Search(query string) []api.Food {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}
	var out []api.Food
	for _, f := range c.foods {
		if strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	return out
}
