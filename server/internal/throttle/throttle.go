// Package throttle rate-limits high-frequency progress updates per
// logical channel. Sampling is lossy: a dropped update is gone, there
// is no queued replay. Lifecycle transitions must never go through
// here, only percent/time progress does.
package throttle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type channel struct {
	limiter  *rate.Limiter
	interval time.Duration
}

type Throttle struct {
	mu       sync.Mutex
	channels map[string]*channel
}

func New() *Throttle {
	return &Throttle{
		channels: make(map[string]*channel),
	}
}

// Sample reports whether an update on the given channel may be emitted
// now. At most one emission per minInterval passes through, everything
// in between is dropped.
func (t *Throttle) Sample(key string, minInterval time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.channels[key]
	if !ok {
		c = &channel{
			limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
			interval: minInterval,
		}
		t.channels[key] = c
	}

	if c.interval != minInterval {
		c.limiter.SetLimit(rate.Every(minInterval))
		c.interval = minInterval
	}

	return c.limiter.Allow()
}

// Do runs fn only when the channel emits. Returns whether fn ran.
func (t *Throttle) Do(key string, minInterval time.Duration, fn func()) bool {
	if !t.Sample(key, minInterval) {
		return false
	}
	fn()
	return true
}

// Forget drops the state of a channel, typically when its download
// handle goes away.
func (t *Throttle) Forget(key string) {
	t.mu.Lock()
	delete(t.channels, key)
	t.mu.Unlock()
}
