package store

import (
	"context"
	"errors"
)

// Store persists the opaque local state blobs (token, profile, cart) by fixed key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("key not found")
