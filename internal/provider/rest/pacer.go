package rest

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces outbound requests to one provider credential. Consecutive
// Acquire calls on the same instance return at least 60s/requestsPerMinute
// apart; the first call is immediate. Safe for concurrent callers sharing
// one instance — all clients for a given credential must share the Pacer,
// otherwise the provider sees the sum of their rates.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerMinute outbound requests.
// Values <= 0 fall back to 60 (one request per second).
func NewPacer(requestsPerMinute int) *Pacer {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	// Burst of 1 forces strict spacing rather than allowing an initial burst.
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Acquire blocks until the next request slot is available or ctx is
// cancelled, in which case it returns the context error.
func (p *Pacer) Acquire(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
