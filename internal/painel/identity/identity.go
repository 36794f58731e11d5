// Package identity holds the durable device identifier of a paired player
package identity

import (
	"context"
	"sync"

	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
)

// DeviceID is the opaque identifier the backend assigns at pairing
type DeviceID string

// String implements fmt.Stringer
func (d DeviceID) String() string {
	return string(d)
}

// Short returns the first eight characters, for logs and screens
func (d DeviceID) Short() string {
	if len(d) <= 8 {
		return string(d)
	}
	return string(d[:8])
}

// Store persists the device identifier across restarts
type Store interface {
	// Load returns the stored identifier or errors.ErrNotPaired
	Load(ctx context.Context) (DeviceID, error)

	// Save stores the identifier, replacing any previous one
	Save(ctx context.Context, id DeviceID) error

	// Delete removes the stored identifier
	Delete(ctx context.Context) error
}

// MemoryStore keeps the identifier in memory only
type MemoryStore struct {
	mu sync.Mutex
	id DeviceID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (DeviceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return "", perrors.ErrNotPaired
	}
	return s.id, nil
}

func (s *MemoryStore) Save(ctx context.Context, id DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	return nil
}
