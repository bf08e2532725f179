package memory

import (
	"context"
	"sync"

	"github.com/mcoot/gamepoints/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Updates are serialized by a single write lock.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		data: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) View(ctx context.Context, fn storage.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{store: s, readOnly: true})
}

func (s *Storage) Update(ctx context.Context, _ [][]byte, fn storage.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s, staged: make(map[string][]byte)}
	if err := fn(t); err != nil {
		return err
	}

	// Commit staged writes; a nil value marks a delete
	for key, value := range t.staged {
		if value == nil {
			delete(s.data, key)
		} else {
			s.data[key] = value
		}
	}
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Len returns the number of stored keys
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// tx reads through its staged writes to the committed data.
// The caller holds the store lock for the lifetime of the tx.
type tx struct {
	store    *Storage
	readOnly bool
	staged   map[string][]byte
}

func (t *tx) Get(key []byte) ([]byte, error) {
	if value, ok := t.staged[string(key)]; ok {
		if value == nil {
			return nil, storage.ErrNotFound
		}
		return clone(value), nil
	}
	value, ok := t.store.data[string(key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(value), nil
}

func (t *tx) Set(key, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	t.staged[string(key)] = clone(value)
	return nil
}

func (t *tx) Delete(key []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.staged[string(key)] = nil
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
