// Package artifact archives rendered chart images outside the chat
// transport, so progress snapshots survive beyond a conversation.
package artifact

import (
	"context"
	"errors"
	"sync"
)

// Store persists a named binary artifact.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
}

// Multi fans a save out to several stores; all are attempted and errors are
// joined.
type Multi []Store

// Save writes the artifact to every underlying store.
func (m Multi) Save(ctx context.Context, name string, data []byte) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, name, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TestStore is a simple in-memory implementation for testing.
type TestStore struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

// NewTestStore creates an in-memory artifact store.
func NewTestStore() *TestStore {
	return &TestStore{saved: make(map[string][]byte)}
}

// NewTestStoreWithError creates a store whose saves always fail.
func NewTestStoreWithError() *TestStore {
	return &TestStore{err: errors.New("save failed")}
}

// Save records the artifact in memory.
func (t *TestStore) Save(ctx context.Context, name string, data []byte) error {
	if t.err != nil {
		return t.err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved[name] = append([]byte(nil), data...)
	return nil
}

// Get returns a previously saved artifact.
func (t *TestStore) Get(name string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	data, ok := t.saved[name]
	return data, ok
}
