// Package kv provides the durable key-value stores the project snapshot is mirrored into.
package kv

import (
	"context"
)

// Store is an opaque byte-string key/value store.
// Get returns nil, nil when the key does not exist.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// CompareAndSwap stores value only while the key still holds old. A nil
	// old means the key must not exist. It reports whether the value was stored.
	CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Ensure concrete types implement the interface
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
)
