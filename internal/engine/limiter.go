package engine

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// UnboundedCapacity stands in for "no limit". A very large finite bound is
// deliberate: it keeps the gate in place so a runaway configuration cannot
// grow goroutine-holding state without end.
const UnboundedCapacity = 1 << 20

// Limiter is a bounded admission gate capping simultaneous in-flight
// requests. Waiter wakeup order follows the semaphore's policy; slots are
// short-lived so strict FIFO fairness is not required.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int64
}

// NewLimiter creates a limiter with the given capacity. A capacity of zero
// or less selects UnboundedCapacity.
func NewLimiter(capacity int) *Limiter {
	c := int64(capacity)
	if c <= 0 {
		c = UnboundedCapacity
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(c),
		capacity: c,
	}
}

// Acquire blocks until a slot is free or ctx is cancelled
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// Release returns a slot, waking one waiter if any
func (l *Limiter) Release() {
	l.sem.Release(1)
}

// Capacity returns the effective capacity
func (l *Limiter) Capacity() int64 {
	return l.capacity
}
