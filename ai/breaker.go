package ai

import (
	"context"
	"errors"
	"time"

	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Breaker stops calling a failing provider for a while, so that a dead
// provider costs discovery one fast ErrOpenState instead of a timeout per
// request.
type Breaker struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[string]
}

const (
	tripAfter   = 5
	openTimeout = 30 * time.Second
)

// NewBreaker wraps p. The circuit opens after 5 consecutive failures and
// half-opens 30 seconds later.
func NewBreaker(p Provider, name string) *Breaker {
	return newBreaker(p, name, openTimeout)
}

func newBreaker(p Provider, name string, timeout time.Duration) *Breaker {
	metrics.AIBreakerState.WithLabelValues(name).Set(stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ai circuit breaker state change")
			metrics.AIBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// A missing key or an abandoned request says nothing about the
		// provider's health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, ErrDisabled) || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{provider: p, cb: cb}
}

func (b *Breaker) Complete(ctx context.Context, system, prompt string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.provider.Complete(ctx, system, prompt)
	})
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
