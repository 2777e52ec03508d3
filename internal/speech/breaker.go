package speech

import (
	"context"

	"github.com/sony/gobreaker"
)

// ProviderWithBreaker wraps a provider in a circuit breaker: after a few
// consecutive failures the breaker opens and every further call fails
// fast, so a dead provider ends the run instead of burning one slow
// failure per sub-stage. Individual calls are never retried.
type ProviderWithBreaker struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// NewProviderWithBreaker wraps a provider with a circuit breaker that
// trips after three consecutive synthesis failures.
func NewProviderWithBreaker(inner Provider) Provider {
	settings := gobreaker.Settings{
		Name: inner.Name(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &ProviderWithBreaker{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Synthesize passes through to the wrapped provider while the breaker is
// closed.
func (p *ProviderWithBreaker) Synthesize(ctx context.Context, text string, req Request) ([]byte, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Synthesize(ctx, text, req)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Name returns the provider name
func (p *ProviderWithBreaker) Name() string {
	return p.inner.Name()
}

// IsAvailable checks the wrapped provider
func (p *ProviderWithBreaker) IsAvailable() error {
	return p.inner.IsAvailable()
}
