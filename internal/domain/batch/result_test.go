package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWritten(t *testing.T) {
	r := NewWritten(3, "doc-1", "2024-01-02.md")
	assert.Equal(t, 3, r.Index())
	assert.Equal(t, "doc-1", r.ID())
	assert.Equal(t, "2024-01-02.md", r.Name())
	assert.Equal(t, StatusWritten, r.Status())
	assert.NoError(t, r.Err())
}

func TestNewFailed(t *testing.T) {
	err := errors.New("something failed")
	r := NewFailed(0, "doc-2", err)
	assert.Equal(t, StatusFailed, r.Status())
	assert.ErrorIs(t, r.Err(), err)
	assert.Empty(t, r.Name())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		NewWritten(0, "", "a.md"),
		NewRendered(1, "", "b.md"),
		NewRendered(2, "", "c.md"),
		NewFailed(3, "", errors.New("x")),
	})
	assert.Equal(t, Summary{Written: 1, Rendered: 2, Failed: 1}, s)
}
