package risk

import (
	"context"
	"sync"
)

// StateStore persists the governor state between process restarts.
type StateStore interface {
	Load(ctx context.Context, symbol string) (State, bool, error)
	Save(ctx context.Context, symbol string, s State) error
}

type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, symbol string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[symbol]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, symbol string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[symbol] = s
	return nil
}
