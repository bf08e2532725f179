package storage

import (
	"context"
	"errors"
)

// Errors returned by storage implementations
var (
	ErrNotFound = errors.New("key not found")
	ErrReadOnly = errors.New("transaction is read-only")
	ErrConflict = errors.New("transaction conflicted with a concurrent update")
)

// Tx is a view of the store scoped to a single View or Update call.
// Writes made through a Tx become visible to other callers only when the
// enclosing Update returns nil.
type Tx interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// TxFunc is the body of a transaction
type TxFunc func(tx Tx) error

// Store defines a key-value store addressed by opaque byte keys
type Store interface {
	// View runs fn against a read-only transaction
	View(ctx context.Context, fn TxFunc) error

	// Update runs fn atomically. If fn returns an error nothing is written.
	// Keys fn reads and the keys in watch must not change between the read
	// and the commit; a backend that cannot guarantee that reruns fn.
	// Backends that serialize all updates may ignore watch.
	Update(ctx context.Context, watch [][]byte, fn TxFunc) error

	Close() error
}
