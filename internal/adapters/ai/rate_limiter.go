package ai

import (
	"context"

	"golang.org/x/time/rate"

	"graham/pkg/errors"
)

// RateLimiter throttles provider requests. Providers enforce per-minute
// request quotas; a shared limiter per provider keeps the sequential loop
// under them without retry churn.
type RateLimiter struct {
	limiter *rate.Limiter
	name    string
}

// NewRateLimiter creates a limiter allowing requestsPerMinute sustained
// throughput with a small burst.
func NewRateLimiter(name string, requestsPerMinute float64) *RateLimiter {
	rps := requestsPerMinute / 60.0

	burst := int(requestsPerMinute / 10)
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *RateLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *RateLimiter) Allow() bool {
	return l.limiter.Allow()
}
