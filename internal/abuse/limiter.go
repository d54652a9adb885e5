// Package abuse guards the request surface against floods and
// trivially automated form submissions.
package abuse

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Ceiling is a request ceiling: at most Limit requests per Window.
type Ceiling struct {
	Limit  int
	Window time.Duration
}

func PerMinute(limit int) Ceiling {
	return Ceiling{Limit: limit, Window: time.Minute}
}

func PerHour(limit int) Ceiling {
	return Ceiling{Limit: limit, Window: time.Hour}
}

// Limiter tracks request ceilings per key. A request is only allowed
// when every ceiling still has room.
//
// Each ceiling maps to a token bucket that holds Limit tokens and
// refills one token per Window/Limit. A full burst is available
// immediately, after that requests are smoothed out over the window.
type Limiter struct {
	ceilings []Ceiling

	mu      sync.Mutex
	entries map[string]*entry

	// maxWindow bounds how long an idle entry is kept around.
	maxWindow time.Duration
}

type entry struct {
	buckets  []*rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a Limiter enforcing all the provided ceilings.
func NewLimiter(ceilings ...Ceiling) *Limiter {
	var maxWindow time.Duration
	for _, c := range ceilings {
		if c.Window > maxWindow {
			maxWindow = c.Window
		}
	}

	return &Limiter{
		ceilings:  ceilings,
		entries:   make(map[string]*entry),
		maxWindow: maxWindow,
	}
}

// Allow reports whether the request identified by key may proceed at
// time t. Ceilings that still have room are charged even when another
// ceiling denies the request.
//
// Taking t as a parameter keeps the limiter deterministic in tests.
func (l *Limiter) Allow(key string, t time.Time) bool {
	if len(l.ceilings) == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{
			buckets: make([]*rate.Limiter, 0, len(l.ceilings)),
		}
		for _, c := range l.ceilings {
			e.buckets = append(e.buckets, rate.NewLimiter(rate.Every(c.Window/time.Duration(c.Limit)), c.Limit))
		}
		l.entries[key] = e
	}

	e.lastSeen = t

	allowed := true
	for _, b := range e.buckets {
		if !b.AllowN(t, 1) {
			allowed = false
		}
	}

	l.prune(t)

	return allowed
}

// prune drops entries that have been idle long enough for all their
// buckets to be full again. Must be called with the lock held.
func (l *Limiter) prune(t time.Time) {
	for key, e := range l.entries {
		if t.Sub(e.lastSeen) > l.maxWindow {
			delete(l.entries, key)
		}
	}
}
