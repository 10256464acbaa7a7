// Package ratelimiter guards an account's request budget on the client side,
// so calls that would certainly hit the service's quota are refused before
// they are sent.
package ratelimiter

import (
	"context"
	"time"

	"github.com/mhpenta/tryon"
)

// Limiter defines the interface for request budgets.
// Implementations can be local (in-memory) or distributed (Redis).
type Limiter interface {
	// TryConsume atomically checks capacity and takes one request slot for
	// account if available. When it returns false, the duration is how long
	// until a slot frees up.
	TryConsume(ctx context.Context, account string) (bool, time.Duration, error)
}

// Ensure the limiters can guard the engine.
var (
	_ tryon.QuotaGuard = (Limiter)(nil)
	_ Limiter          = (*Local)(nil)
	_ Limiter          = (*Redis)(nil)
)

// Config stores the budget of one account.
type Config struct {
	// RequestsPerMinute is the sustained rate. Zero disables the limiter.
	RequestsPerMinute int

	// Burst is how many requests may be sent back to back. Defaults to
	// RequestsPerMinute when zero. The Redis limiter ignores it.
	Burst int
}

// DefaultConfig mirrors the service's free tier: 60 requests per minute.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, Burst: 10}
}

func (c Config) burst() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return c.RequestsPerMinute
}
