package docerr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("vector-store", WithMaxFailures(2), WithResetTimeout(10*time.Millisecond))

	boom := errors.New("boom")
	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, CircuitClosed, cb.State())

	assert.Error(t, cb.Execute(func() error { return boom }))
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(func() error { t.Fatal("should not be called while open"); return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("lexical-store", WithMaxFailures(1), WithResetTimeout(5*time.Millisecond))

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}
