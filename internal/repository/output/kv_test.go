package output

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pesto/internal/domain"
)

func TestKVWriter_Write(t *testing.T) {
	ms := newMockKVStore()
	w := NewKVWriter(ms, "")

	require.NoError(t, w.Write(context.Background(), "a.md", []byte("hello"), false))
	assert.Equal(t, "hello", string(ms.data[DefaultKeyPrefix+"a.md"]))
	assert.Zero(t, ms.ttls[DefaultKeyPrefix+"a.md"])
}

func TestKVWriter_ExistingWithoutOverwrite(t *testing.T) {
	ms := newMockKVStore()
	w := NewKVWriter(ms, "site:")
	ms.data["site:a.md"] = []byte("old")

	err := w.Write(context.Background(), "a.md", []byte("new"), false)
	require.ErrorIs(t, err, domain.ErrFileAlreadyExists)
	assert.Equal(t, "old", string(ms.data["site:a.md"]))
}

func TestKVWriter_Overwrite(t *testing.T) {
	ms := newMockKVStore()
	w := NewKVWriter(ms, "site:").WithTTL(time.Hour)
	ms.data["site:a.md"] = []byte("old")

	require.NoError(t, w.Write(context.Background(), "a.md", []byte("new"), true))
	assert.Equal(t, "new", string(ms.data["site:a.md"]))
	assert.Equal(t, time.Hour, ms.ttls["site:a.md"])
}

func TestKVWriter_StoreError(t *testing.T) {
	ms := newMockKVStore()
	ms.err = errors.New("connection reset")
	w := NewKVWriter(ms, "")

	err := w.Write(context.Background(), "a.md", []byte("x"), false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrFileAlreadyExists)
}

func TestKVWriter_EmptyName(t *testing.T) {
	err := NewKVWriter(newMockKVStore(), "").Write(context.Background(), "", nil, true)
	require.ErrorIs(t, err, domain.ErrInvalidFilename)
}
