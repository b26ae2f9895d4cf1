package store

import (
	"context"
	"errors"
)

// Keys of the three persisted documents.
const (
	KeyProducts = "products"
	KeySales    = "sales"
	KeyHistory  = "history"
)

var ErrUnavailable = errors.New("storage unavailable")

// DocumentStore persists whole documents as opaque blobs keyed by name.
// Implementations do not interpret the blob; uniqueness and ordering
// invariants belong to the application, not the store.
type DocumentStore interface {
	// Load returns the stored blob for key, or ok=false when the key is absent.
	Load(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
	Close() error
}
