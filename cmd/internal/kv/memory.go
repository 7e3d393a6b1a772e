package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is a dev/test Store with real expiry semantics.
//
// The clock is injectable so expiry behavior can be tested without sleeping.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem

	// Now defaults to time.Now; tests may replace it.
	Now func() time.Time
}

type memItem struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memItem),
		Now:   time.Now,
	}
}

// Get implements Store. Expired entries are reaped lazily.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	if !it.expiresAt.IsZero() && !it.expiresAt.After(m.Now()) {
		delete(m.items, key)
		return "", ErrNotFound
	}
	return it.value, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	switch {
	case ttl == KeepTTL:
		if prev, ok := m.items[key]; ok {
			exp = prev.expiresAt
		}
	case ttl > 0:
		exp = m.Now().Add(ttl)
	}

	m.items[key] = memItem{value: value, expiresAt: exp}
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

// Ping implements Store (noop for in-memory).
func (m *Memory) Ping(_ context.Context) error { return nil }

// Len reports the number of live entries; used by tests to assert invariants.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	n := 0
	for k, it := range m.items {
		if !it.expiresAt.IsZero() && !it.expiresAt.After(now) {
			delete(m.items, k)
			continue
		}
		n++
	}
	return n
}
