// Package db defines the storage contract for rendered outputs kept in Redis.
package db

import (
	"context"
	"time"
)

// Store is the database facade used by the output writers.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides string key-value operations. A zero ttl means no expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only when key is absent, otherwise it fails with ErrKeyExists.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
