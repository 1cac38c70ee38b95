// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// sweepEvery is how many Allow calls pass between idle-key sweeps.
const sweepEvery = 256

// Limiter bounds attempts per key with a token bucket: a key may spend
// burst attempts at once, refilled evenly over window.
// It is safe for concurrent use.
type Limiter struct {
	mu    sync.Mutex
	keys  map[string]*entry
	every rate.Limit
	burst int
	idle  time.Duration
	calls int
	now   func() time.Time
}

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// New creates a Limiter allowing burst attempts per window for each key.
func New(burst int, window time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		keys:  make(map[string]*entry),
		every: rate.Every(window / time.Duration(burst)),
		burst: burst,
		idle:  window,
		now:   time.Now,
	}
}

// Allow reports whether key may make another attempt now, and spends one
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.calls++; l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	e, ok := l.keys[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.every, l.burst)}
		l.keys[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, key)
}

// Len returns the number of keys being tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// sweep drops keys idle for a whole window; their buckets are full again.
func (l *Limiter) sweep(now time.Time) {
	for k, e := range l.keys {
		if now.Sub(e.seen) >= l.idle {
			delete(l.keys, k)
		}
	}
}
