package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
)

const storageKey = "cart"

// Repository persists a ledger snapshot as a JSON blob in the local store.
type Repository struct {
	store  store.Store
	logger *zap.Logger
}

func NewRepository(s store.Store, l *zap.Logger) *Repository {
	return &Repository{store: s, logger: logger.OrNop(l)}
}

// Load returns the persisted ledger. A missing or corrupt blob yields an empty ledger.
func (r *Repository) Load(ctx context.Context) (*Ledger, error) {
	ledger := NewLedger()

	data, err := r.store.Get(ctx, storageKey)
	if errors.Is(err, store.ErrNotFound) {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Warn("discarding unreadable cart", zap.Error(err))
		return ledger, nil
	}
	ledger.Restore(snap)
	return ledger, nil
}

func (r *Repository) Save(ctx context.Context, l *Ledger) error {
	if l.IsEmpty() {
		if err := r.store.Delete(ctx, storageKey); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(l.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	if err := r.store.Set(ctx, storageKey, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
