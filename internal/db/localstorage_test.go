package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewLocalStorage(database)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)

	value, ok, err := s.GetItem(context.Background(), "foods")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, value)
}

func TestLocalStorage_SetGetOverwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "tft:new-meal-form", `{"title":"a"}`))
	require.NoError(t, s.SetItem(ctx, "tft:new-meal-form", `{"title":"b"}`))

	value, ok, err := s.GetItem(ctx, "tft:new-meal-form")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"title":"b"}`, value)
}

func TestLocalStorage_Remove(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "foods", "[]"))
	require.NoError(t, s.RemoveItem(ctx, "foods"))
	require.NoError(t, s.RemoveItem(ctx, "foods"), "removing a missing key is not an error")

	_, ok, err := s.GetItem(ctx, "foods")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStorage_Keys(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "tft:new-meal-form", "{}"))
	require.NoError(t, s.SetItem(ctx, "foods", "[]"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"foods", "tft:new-meal-form"}, keys)
}

func TestLocalStorage_ClosedDatabase(t *testing.T) {
	database, err := Init(t.TempDir())
	require.NoError(t, err)
	s := NewLocalStorage(database)
	database.Close()

	_, _, err = s.GetItem(context.Background(), "foods")
	require.Error(t, err)
}
