package dedup

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Ramsey-B/fern/pkg/batch"
)

// MemorySessionStore keeps batch states in process memory. States are stored encoded so
// callers never share slices with the store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string][]byte{}}
}

func (m *MemorySessionStore) Load(_ context.Context, tenantID string) (*batch.State, error) {
	m.mu.Lock()
	raw, ok := m.sessions[tenantID]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var state batch.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MemorySessionStore) Save(_ context.Context, tenantID string, state batch.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[tenantID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, tenantID string) error {
	m.mu.Lock()
	delete(m.sessions, tenantID)
	m.mu.Unlock()
	return nil
}

// MemoryLocker hands out per-key locks that honor context cancellation
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: map[string]chan struct{}{}}
}

func (m *MemoryLocker) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.slots[key] = ch
	}
	return ch
}

func (m *MemoryLocker) Lock(ctx context.Context, key string) (func(context.Context), error) {
	ch := m.slot(key)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func(context.Context) {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
