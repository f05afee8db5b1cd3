// Package cache provides a key/value store with per-entry TTL. Values are
// opaque bytes, replaced wholesale on every write, so backends can be swapped
// between a process-local map and a shared database table.
package cache

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
)

// Cache stores byte values under string keys until their TTL elapses.
// Implementations must be safe for concurrent use; concurrent writers to the
// same key resolve as last-writer-wins.
type Cache interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// New builds the cache backend named by backend. db is required only for
// the database backend.
func New(backend string, db *gorm.DB) (Cache, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendDatabase:
		if db == nil {
			return nil, fmt.Errorf("cache backend %q requires a database", backend)
		}
		return NewDatabase(db), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
