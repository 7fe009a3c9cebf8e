package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/tftdiet/tft/internal/errors"
)

// LocalStorage is a string key/value store with the semantics of the
// browser's window.localStorage: last write wins, missing keys read as absent.
type LocalStorage struct {
	db *sql.DB
}

// NewLocalStorage wraps an initialized database.
func NewLocalStorage(db *sql.DB) *LocalStorage {
	return &LocalStorage{db: db}
}

// GetItem returns the value stored under key. ok is false when the key is absent.
func (s *LocalStorage) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStorage(err)
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *LocalStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *LocalStorage) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *LocalStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.NewStorage(err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return keys, nil
}
