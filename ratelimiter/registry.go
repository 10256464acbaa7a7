package ratelimiter

import (
	"sync"

	"golang.org/x/time/rate"
)

// registry holds one token bucket per account.
type registry struct {
	limit rate.Limit
	burst int

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newRegistry(limit rate.Limit, burst int) *registry {
	return &registry{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// get returns the bucket of account, creating a full one on first use.
func (r *registry) get(account string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[account]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.limiters[account]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[account] = limiter
	return limiter
}
