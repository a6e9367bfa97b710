package kv

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Memory is an in-process Store. It is lost when the process exits.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store. A nil clock uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]Entry),
		now:     now,
	}
}

// Get returns the entry for key.
func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, apperrors.NotFound("session entry", key)
	}
	if e.Expired(m.now()) {
		delete(m.entries, key)
		return Entry{}, apperrors.NotFound("session entry", key)
	}
	return e, nil
}

// Set stores entry under key. An already expired entry removes the key.
func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.Expired(m.now()) {
		delete(m.entries, key)
		return nil
	}
	m.entries[key] = entry
	return nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
