package output

import (
	"context"
	"time"

	"github.com/kailas-cloud/pesto/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.data[key]; ok {
		return db.ErrKeyExists
	}
	return m.Set(ctx, key, value, ttl)
}
