package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Registry keeps one token-bucket limiter per caller identity (session id or
// remote address). Idle entries are evicted so the map stays bounded.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*entry

	limit rate.Limit
	burst int

	idleEviction time.Duration
	lastSweep    time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRegistry builds a registry allowing requestsPerWindow requests per
// window per identity.
func NewRegistry(requestsPerWindow int, window time.Duration) *Registry {
	if requestsPerWindow <= 0 {
		requestsPerWindow = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Registry{
		limiters:     make(map[string]*entry),
		limit:        rate.Limit(float64(requestsPerWindow) / window.Seconds()),
		burst:        requestsPerWindow,
		idleEviction: 3 * window,
		lastSweep:    time.Now(),
	}
}

// Allow reports whether the identity may proceed. When denied, retryAfter
// hints how long the caller should wait before the next attempt.
func (r *Registry) Allow(identity string) (allowed bool, retryAfter time.Duration) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) > r.idleEviction {
		for id, e := range r.limiters {
			if now.Sub(e.lastSeen) > r.idleEviction {
				delete(r.limiters, id)
			}
		}
		r.lastSweep = now
	}

	e, ok := r.limiters[identity]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[identity] = e
	}
	e.lastSeen = now

	if e.limiter.Allow() {
		return true, 0
	}

	// Time until one token refills.
	perToken := time.Duration(math.Ceil(float64(time.Second) / float64(r.limit)))
	return false, perToken
}
