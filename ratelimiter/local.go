package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Local keeps per-account token buckets in memory. Budgets are not shared
// between processes; use Redis for that.
type Local struct {
	accounts *registry
	now      func() time.Time
}

// NewLocal creates an in-memory limiter.
func NewLocal(cfg Config) *Local {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	return &Local{
		accounts: newRegistry(limit, cfg.burst()),
		now:      time.Now,
	}
}

// TryConsume takes one slot for account. A denied call consumes nothing.
func (l *Local) TryConsume(_ context.Context, account string) (bool, time.Duration, error) {
	limiter := l.accounts.get(account)
	now := l.now()

	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute, nil
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}
