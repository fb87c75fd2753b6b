package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/solatis/courier/internal/types"
)

type localRef struct {
	kind types.Kind
	id   types.LocalID
}

type keyRef struct {
	kind types.Kind
	key  types.StableKey
}

// Memory is an in-process Map. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	toKey map[localRef]types.StableKey
	toID  map[keyRef]types.LocalID
}

// NewMemory creates a map pre-populated with entries.
func NewMemory(entries ...Entry) *Memory {
	m := &Memory{
		toKey: make(map[localRef]types.StableKey),
		toID:  make(map[keyRef]types.LocalID),
	}
	m.Import(entries)
	return m
}

// Put records a mapping in both directions, replacing any previous mapping
// of either side.
func (m *Memory) Put(kind types.Kind, id types.LocalID, key types.StableKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(kind, id, key)
}

func (m *Memory) put(kind types.Kind, id types.LocalID, key types.StableKey) {
	if old, ok := m.toKey[localRef{kind, id}]; ok {
		delete(m.toID, keyRef{kind, old})
	}
	if old, ok := m.toID[keyRef{kind, key}]; ok {
		delete(m.toKey, localRef{kind, old})
	}
	m.toKey[localRef{kind, id}] = key
	m.toID[keyRef{kind, key}] = id
}

// Import records every entry.
func (m *Memory) Import(entries []Entry) {
	for _, e := range entries {
		m.Put(e.Kind, e.LocalID, e.StableKey)
	}
}

// Register returns the stable key for id, generating one if none exists.
func (m *Memory) Register(_ context.Context, kind types.Kind, id types.LocalID) (types.StableKey, error) {
	m.mu.RLock()
	key, ok := m.toKey[localRef{kind, id}]
	m.mu.RUnlock()
	if ok {
		return key, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have registered id since the read lock was released.
	if key, ok := m.toKey[localRef{kind, id}]; ok {
		return key, nil
	}
	key = types.NewStableKey()
	m.put(kind, id, key)
	return key, nil
}

// ToStableKey implements Map.
func (m *Memory) ToStableKey(_ context.Context, id types.LocalID, kind types.Kind) (types.StableKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.toKey[localRef{kind, id}]
	if !ok {
		return "", fmt.Errorf("%w: %s %d", types.ErrNotFound, kind, id)
	}
	return key, nil
}

// ToLocalID implements Map.
func (m *Memory) ToLocalID(_ context.Context, key types.StableKey, kind types.Kind) (types.LocalID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.toID[keyRef{kind, key}]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", types.ErrNotFound, kind, key)
	}
	return id, nil
}

// Remapped returns a copy in which every entry (kind, id, key) becomes
// (kind, remap(id), key): a destination store that issued different local
// ids for the same stable keys.
func (m *Memory) Remapped(remap func(types.LocalID) types.LocalID) *Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := NewMemory()
	for ref, key := range m.toKey {
		out.Put(ref.kind, remap(ref.id), key)
	}
	return out
}
