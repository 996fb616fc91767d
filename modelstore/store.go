// Package modelstore persists snapshots of built models.
package modelstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// Store is the interface for persisting model snapshots. A builder that can
// resolve a Store saves every model it builds.
type Store interface {
	// Load retrieves a snapshot by model name.
	// Returns nil, nil if the name doesn't exist.
	Load(ctx context.Context, name string) (*edm.Snapshot, error)

	// Save stores a snapshot under the model name, replacing any
	// previous one.
	Save(ctx context.Context, name string, s *edm.Snapshot) error

	// Delete removes a snapshot.
	Delete(ctx context.Context, name string) error
}

// Marshal encodes a snapshot.
func Marshal(s *edm.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, edmx.Nil("snapshot")
	}
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("modelstore: encode snapshot %q: %w", s.Name, err)
	}
	return b, nil
}

// Unmarshal decodes a snapshot.
func Unmarshal(b []byte) (*edm.Snapshot, error) {
	s := &edm.Snapshot{}
	if err := msgpack.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("modelstore: decode snapshot: %w", err)
	}
	return s, nil
}

// checkName rejects names that are empty or could escape a directory.
func checkName(name string) error {
	if err := edmx.CheckNotEmpty("name", name); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return edmx.NewArgumentError("name", fmt.Sprintf("invalid model name %q", name))
	}
	return nil
}

// MemoryStore is an in-memory Store. Snapshots are stored encoded, so
// callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (*edm.Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	b, ok := s.items[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return Unmarshal(b)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, name string, snap *edm.Snapshot) error {
	if err := checkName(name); err != nil {
		return err
	}
	b, err := Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.items[name] = b
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, name)
	s.mu.Unlock()
	return nil
}
