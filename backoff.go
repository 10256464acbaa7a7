package tryon

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay between retries of the same (model, variant)
// pair: Base * 2^attempt plus a uniform jitter in [0, Jitter).
type Backoff struct {
	Base   time.Duration
	Jitter time.Duration

	// rand returns a value in [0, n). Replaced in tests.
	rand func(n int64) int64
}

// maxBackoffShift caps the exponent; a one second base then waits at most
// about nine hours.
const maxBackoffShift = 15

// DefaultBackoff returns the one second base with up to one second of jitter.
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Jitter: time.Second}
}

// Delay returns the wait before retry number attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	attempt = min(max(attempt, 0), maxBackoffShift)
	delay := b.Base << uint(attempt)
	if b.Jitter > 0 {
		randN := b.rand
		if randN == nil {
			randN = rand.Int64N
		}
		delay += time.Duration(randN(int64(b.Jitter)))
	}
	return delay
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
