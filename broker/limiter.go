package broker

import "context"

// requestLimiter bounds the number of requests handled simultaneously. A
// max of 0 means unlimited.
type requestLimiter struct {
	sem chan struct{}
}

// newRequestLimiter creates a limiter admitting up to max concurrent
// holders.
func newRequestLimiter(max int) *requestLimiter {
	if max <= 0 {
		return &requestLimiter{}
	}
	return &requestLimiter{sem: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or the context is done.
func (l *requestLimiter) Acquire(ctx context.Context) error {
	if l.sem == nil {
		return nil
	}
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (l *requestLimiter) Release() {
	if l.sem == nil {
		return
	}
	<-l.sem
}
