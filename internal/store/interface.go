// internal/store/interface.go
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed Bolt or Mock store. The
// SQL backends report database/sql's own error instead.
var ErrClosed = errors.New("store closed")

// Store is a string key/value store for identity mappings.
type Store interface {
	// Read returns the value for key; false when the key is unset.
	Read(ctx context.Context, key string) (string, bool, error)
	// Write sets key to value, replacing any previous value.
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Verify implementations at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
	_ Store = (*Bolt)(nil)
	_ Store = (*Mock)(nil)
)
