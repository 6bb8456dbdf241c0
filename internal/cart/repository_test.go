package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/store"
)

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	repo := NewRepository(s, nil)

	l := NewLedger()
	l.Add(product("A", "10"), "M")
	l.Add(product("A", "10"), "M")
	l.Add(product("B", "4.25"), "S")
	require.NoError(t, repo.Save(ctx, l))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(l.Items()), len(loaded.Items()))
	for i, it := range loaded.Items() {
		assert.Equal(t, l.Items()[i].Key(), it.Key())
		assert.Equal(t, l.Items()[i].Quantity, it.Quantity)
		assert.True(t, l.Items()[i].UnitPrice.Equal(it.UnitPrice))
	}
	assert.True(t, l.Subtotal().Equal(loaded.Subtotal()))
}

func TestRepository_LoadMissingIsEmpty(t *testing.T) {
	repo := NewRepository(store.NewMemoryStore(), nil)

	l, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())
}

func TestRepository_LoadCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, storageKey, []byte(`{"items":[`)))

	l, err := NewRepository(s, nil).Load(ctx)
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())
}

func TestRepository_SaveEmptyDeletesKey(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, storageKey, []byte(`{"items":[]}`)))

	require.NoError(t, NewRepository(s, nil).Save(ctx, NewLedger()))
	_, err := s.Get(ctx, storageKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepository_LoadStoreError(t *testing.T) {
	repo := NewRepository(failingStore{err: errors.New("disk on fire")}, nil)

	_, err := repo.Load(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}
