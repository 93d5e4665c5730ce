// Package backoff computes the delays between client reconnection
// attempts. Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Exponential doubles the delay on every attempt, capped at Max
// (uncapped when Max is zero).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial doubled attempt-1 times, capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := e.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
	}
	return d
}

// Jittered applies full jitter to another strategy: each delay is drawn
// uniformly from [0, base]. Spreads reconnects out after a server restart
// so clients do not stampede back in lockstep.
type Jittered struct {
	Base Strategy
}

// Delay returns a uniform random duration in [0, Base.Delay(attempt)].
func (j Jittered) Delay(attempt int) time.Duration {
	base := j.Base.Delay(attempt)
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(base) + 1)) //nolint:gosec // jitter intentionally uses non-crypto rand
}

// DefaultStrategy is the reconnect default: jittered exponential, 1s
// initial, 30s cap.
func DefaultStrategy() Strategy {
	return Jittered{Base: NewExponential(1*time.Second, 30*time.Second)}
}
