package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/pesto/internal/db"
	"github.com/kailas-cloud/pesto/internal/domain"
)

// DefaultKeyPrefix namespaces rendered outputs in the key-value store.
const DefaultKeyPrefix = "pesto:output:"

// store is the consumer interface for the key-value writer.
type store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KVWriter stores each output under prefix+name.
type KVWriter struct {
	store  store
	prefix string
	ttl    time.Duration
}

// NewKVWriter creates a key-value writer. An empty prefix uses DefaultKeyPrefix.
func NewKVWriter(s store, prefix string) *KVWriter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &KVWriter{store: s, prefix: prefix}
}

// WithTTL expires outputs after ttl.
func (w *KVWriter) WithTTL(ttl time.Duration) *KVWriter {
	if ttl > 0 {
		w.ttl = ttl
	}
	return w
}

// Key returns the storage key for an output name.
func (w *KVWriter) Key(name string) string { return w.prefix + name }

// Write stores content. Without overwrite the write is a SET NX and an
// existing key fails with domain.ErrFileAlreadyExists.
func (w *KVWriter) Write(ctx context.Context, name string, content []byte, overwrite bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", domain.ErrInvalidFilename)
	}
	key := w.Key(name)

	if overwrite {
		if err := w.store.Set(ctx, key, content, w.ttl); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
		return nil
	}

	if err := w.store.SetNX(ctx, key, content, w.ttl); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("%w: %s", domain.ErrFileAlreadyExists, key)
		}
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
