// Package kv persists session entries in an expiring key/value store.
package kv

import (
	"context"
	"time"
)

// Entry is a stored value with its absolute expiry.
type Entry struct {
	Value     string    `json:"value" yaml:"value"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is an expiring key/value backend. Get returns an error matching
// errors.ErrNotFound when the key is absent or expired. Delete removes all
// given keys in one operation.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}
