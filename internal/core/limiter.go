package core

// limiter.go bounds how many cleans run at once.
//
// Each clean holds a whole table in memory, so parallelism is capped with a
// semaphore. When every slot is taken a caller waits up to maxWait and then
// gets ErrTooManyCleans. WaitForDrain lets shutdown wait for in-flight cleans.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyCleans is returned when no clean slot frees up within the wait
// time. Clients should retry after a short delay.
var ErrTooManyCleans = errors.New("too many concurrent cleans, please try again later")

const (
	// DefaultMaxConcurrentCleans is used when no positive limit is given.
	DefaultMaxConcurrentCleans = 5

	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 10 * time.Second

	drainPollInterval = 50 * time.Millisecond
)

// Limiter is a counting semaphore for cleans.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter creates a limiter allowing maxConcurrent simultaneous cleans.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCleans
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's max wait. It returns the
// context's error if ctx ends first. Callers must Release after success.
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyCleans
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of cleans holding a slot.
func (l *Limiter) ActiveCount() int {
	return int(l.active.Load())
}

// WaitForDrain blocks until no clean holds a slot or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// LimiterStatus is a snapshot of limiter usage for health endpoints.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
