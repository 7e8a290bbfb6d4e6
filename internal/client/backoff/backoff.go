// Package backoff holds the retry delay policy shared by the outbox
// scheduler and the sync orchestrator. The functions are pure so that the
// policy stays unit-testable with an injected clock and RNG.
package backoff

import (
	"math"
	"time"
)

const (
	// BaseDelay is the delay before the first retry of an outbox item
	BaseDelay = time.Second

	// MaxDelay caps every computed delay
	MaxDelay = 30 * time.Second

	// CycleBaseDelay is the minimum delay before retrying a failed sync
	// cycle
	CycleBaseDelay = 5 * time.Second
)

// Delay returns the backoff window before the next retry of an outbox item
// that has failed retryCount times: 1s, 2s, 4s, 8s, 16s, then capped at 30s.
func Delay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	// 1s << 5 already exceeds the cap; avoid shifting into overflow
	if retryCount >= 5 {
		return MaxDelay
	}
	d := BaseDelay << uint(retryCount)
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}

// CycleDelay returns the randomized delay before re-running a sync cycle
// that failed as a whole. jitter must be in [0, 1); the result is an
// exponentially distributed value in [5s, 30s), which bounds worst-case
// recovery latency after a transient outage.
func CycleDelay(jitter float64) time.Duration {
	if jitter < 0 {
		jitter = 0
	}
	if jitter >= 1 {
		jitter = math.Nextafter(1, 0)
	}
	// spread 2^x over [1, 6) so the full delay covers [5s, 30s)
	factor := math.Pow(2, jitter*math.Log2(float64(MaxDelay)/float64(CycleBaseDelay)))
	d := time.Duration(float64(CycleBaseDelay) * factor)
	if d >= MaxDelay {
		d = MaxDelay - time.Nanosecond
	}
	return d
}
