package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockChecker struct {
	err      error
	deadline bool
}

func (m *mockChecker) Ping(ctx context.Context) error {
	_, m.deadline = ctx.Deadline()
	return m.err
}

// --- Tests ---

func TestCheck_NoChecks(t *testing.T) {
	r := New(nil).Check(context.Background())
	assert.Equal(t, Healthy, r.Status)
	assert.Empty(t, r.Checks)
}

func TestCheck_AllHealthy(t *testing.T) {
	out := &mockChecker{}
	svc := New(nil).WithCheck("output", out).WithCheck("upstream", &mockChecker{})

	r := svc.Check(context.Background())
	assert.Equal(t, Healthy, r.Status)
	assert.Equal(t, map[string]CheckResult{"output": CheckOK, "upstream": CheckOK}, r.Checks)
	assert.True(t, out.deadline, "each check runs with a timeout")
}

func TestCheck_Degraded(t *testing.T) {
	svc := New(nil).
		WithCheck("output", &mockChecker{err: errors.New("connection refused")}).
		WithCheck("upstream", &mockChecker{})

	r := svc.Check(context.Background())
	assert.Equal(t, Degraded, r.Status)
	assert.Equal(t, CheckError, r.Checks["output"])
	assert.Equal(t, CheckOK, r.Checks["upstream"])
}

func TestWithCheck_IgnoresNil(t *testing.T) {
	svc := New(nil).WithCheck("output", nil)
	require.Empty(t, svc.checks)
}

func TestWithTimeout(t *testing.T) {
	svc := New(nil).WithTimeout(0)
	assert.Equal(t, DefaultTimeout, svc.timeout)
	svc.WithTimeout(time.Second)
	assert.Equal(t, time.Second, svc.timeout)
}
