package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) (*SQLiteStore, string) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteStore_SetGetOverwrite(t *testing.T) {
	s, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "site", []byte("first")))
	require.NoError(t, s.Set(ctx, "site", []byte("second")))

	got, err := s.Get(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s, _ := setupSQLite(t)

	_, err := s.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Delete(t *testing.T) {
	s, _ := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart", []byte(`{"items":[]}`)))
	require.NoError(t, s.Delete(ctx, "cart"))

	_, err := s.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "cart"))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	s, path := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "site", []byte("persisted")))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}
