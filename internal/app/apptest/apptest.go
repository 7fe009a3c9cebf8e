// Package apptest builds an initialized application context against a fake
// remote API for tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/tftdiet/tft/internal/api/apitest"
	"github.com/tftdiet/tft/internal/app"
	"github.com/tftdiet/tft/internal/config"
	"github.com/tftdiet/tft/internal/db"
)

// Now is the fixed clock of test apps: Wednesday 2024-05-01 12:00 UTC.
var Now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// New returns an initialized app over a fresh database and a fake remote.
func New(t testing.TB) (*app.App, *apitest.Server) {
	t.Helper()
	remote := apitest.New(t)
	return NewWithRemote(t, t.TempDir(), remote), remote
}

// NewWithRemote returns an initialized app over the database in baseDir,
// talking to remote.
func NewWithRemote(t testing.TB, baseDir string, remote *apitest.Server) *app.App {
	t.Helper()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	a, err := app.New(Config(remote.URL), database, app.WithClock(func() time.Time { return Now }))
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	a.Init(context.Background())
	return a
}

// Config returns a UTC configuration pointing at apiURL.
func Config(apiURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIBaseURL = apiURL
	cfg.TimeZone = "UTC"
	cfg.RequestTimeoutSeconds = 2
	return cfg
}
