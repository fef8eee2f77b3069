package http

import "time"

// rateLimiter is a per-connection chat-line budget, reset every minute.
// It is only touched from the connection's read loop, so no locking.
type rateLimiter struct {
	limit   int
	counter int
	reset   *time.Ticker
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit: limit,
		reset: time.NewTicker(time.Minute),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	select {
	case <-r.reset.C:
		r.counter = 0
	default:
	}
	r.counter++
	return r.counter <= r.limit
}

// stopOn releases the ticker once the connection is done.
func (r *rateLimiter) stopOn(stop <-chan struct{}) {
	if r == nil || r.reset == nil {
		return
	}
	go func() {
		<-stop
		r.reset.Stop()
	}()
}
