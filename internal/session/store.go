package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session: not found")

// Store persists session state by ID.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. States are stored as JSON
// so callers never share a pointer with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &state, nil
}

func (m *MemoryStore) Save(_ context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return errors.New("session: id required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	m.mu.Lock()
	m.sessions[state.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
