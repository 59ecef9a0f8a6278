package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xRamax/scrapper-violet-wave/internal/config"
)

var errUnavailable = errors.New("twilio: status 503: service unavailable")

// clock is a manually advanced time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time         { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *clock) {
	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(cfg)
	cb.nowFunc = c.Now
	return cb, c
}

func send(cb *CircuitBreaker, err error) error {
	return cb.Execute(context.Background(), func(_ context.Context) error { return err })
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	for range 2 {
		assert.ErrorIs(t, send(cb, errUnavailable), errUnavailable)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	require.NoError(t, send(cb, nil), "success resets the count")
	for range 2 {
		_ = send(cb, errUnavailable)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	_ = send(cb, errUnavailable)
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not call through")
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb, clk := newBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	_ = send(cb, errUnavailable)
	require.Equal(t, CircuitOpen, cb.State())

	clk.Advance(time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// A failed probe reopens.
	_ = send(cb, errUnavailable)
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, send(cb, nil), ErrCircuitOpen)

	clk.Advance(time.Minute)
	require.NoError(t, send(cb, nil))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ShouldTrip(t *testing.T) {
	invalidNumber := errors.New("twilio: status 400: invalid 'To' phone number")
	cb, _ := newBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       func(err error) bool { return !errors.Is(err, invalidNumber) },
	})

	for range 5 {
		assert.ErrorIs(t, send(cb, invalidNumber), invalidNumber)
	}
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_StateChangesAndReset(t *testing.T) {
	var transitions []string
	cb, _ := newBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = send(cb, errUnavailable)
	cb.Reset()
	cb.Reset()

	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
	assert.NoError(t, send(cb, nil))
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = errUnavailable
			}
			_ = send(cb, err)
			_ = cb.State()
		}()
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(FromCircuitConfig(config.RetryConfig{}))
	assert.Equal(t, 5, cb.cfg.FailureThreshold)
	assert.Equal(t, 60*time.Second, cb.cfg.ResetTimeout)

	cfg := FromCircuitConfig(config.RetryConfig{CircuitFailureThreshold: 4, CircuitResetSecs: 30})
	assert.Equal(t, 4, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.ResetTimeout)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(99).String())
}
