// Package credstore holds the single persisted bearer-token slot.
//
// A Store is deliberately mechanical: it does not validate, refresh or
// expire tokens. The session package decides when a token is written,
// read or cleared.
package credstore

import "sync"

// Store is a single slot holding an opaque bearer token.
type Store interface {
	// Get returns the stored token and whether one is present.
	Get() (string, bool)
	// Set replaces the stored token.
	Set(token string) error
	// Clear removes the stored token. Clearing an empty slot is not an error.
	Clear() error
}

// MemoryStore keeps the token in process memory. It is used by tests and
// by embedders that do not want anything written to disk or cookies.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns an empty MemoryStore, optionally seeded with token.
func NewMemory(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Get() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

func (m *MemoryStore) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
