package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tftdiet/tft/internal/config"
	_ "modernc.org/sqlite"
)

// FileName is the database file created under the base directory.
const FileName = "tft.db"

// migrations[i] upgrades user_version i to i+1.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS local_storage (
	  key        TEXT PRIMARY KEY,
	  value      TEXT NOT NULL,
	  updated_at INTEGER NOT NULL
	);`,
}

// SchemaVersion is the user_version a fully migrated database reports.
var SchemaVersion = len(migrations)

// Init opens (creating if needed) the local store at baseDir/tft.db and
// brings its schema up to date. Tests pass t.TempDir() as baseDir.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create %s: %w", baseDir, err)
	}
	_ = os.Chmod(baseDir, 0700)

	path := filepath.Join(baseDir, FileName)
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, step := range []func(*sql.DB) error{requireWAL, migrate} {
		if err := step(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	_ = os.Chmod(path, 0600)
	return db, nil
}

// ConfigurePool applies the db_max_* settings. Zero values keep the
// database/sql defaults.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// UserVersion reports the schema version stored in the database header.
func UserVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// migrate runs each pending step in its own transaction together with the
// user_version bump. A database written by a newer build is refused.
func migrate(db *sql.DB) error {
	from, err := UserVersion(db)
	if err != nil {
		return err
	}
	if from > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", from, SchemaVersion)
	}

	for v := from; v < SchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d: bump user_version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", v+1, err)
		}
	}
	return nil
}

func requireWAL(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("read journal_mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("journal_mode is %s, want wal", mode)
	}
	return nil
}
