package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	stamps []time.Time
}

// Limiter caps events per key over a rolling window. Keys are bot ids.
type Limiter struct {
	mu   sync.Mutex
	span time.Duration
	m    map[string]*window
}

// New returns a limiter over the given rolling span (one hour for decision
// caps).
func New(span time.Duration) *Limiter {
	return &Limiter{span: span, m: make(map[string]*window)}
}

// Reserve records one event for key if the cap allows it and returns a zero
// wait. When the cap is hit it does not record and returns how long the
// caller must sleep until the oldest event ages out of the window.
func (l *Limiter) Reserve(key string, limit int) time.Duration {
	if limit <= 0 {
		return 0
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.m[key]
	if !ok {
		w = &window{}
		l.m[key] = w
	}
	w.prune(now, l.span)

	if len(w.stamps) < limit {
		w.stamps = append(w.stamps, now)
		return 0
	}
	return w.stamps[0].Add(l.span).Sub(now)
}

// Count returns the number of events currently inside the window for key.
func (l *Limiter) Count(key string) int {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.m[key]
	if !ok {
		return 0
	}
	w.prune(now, l.span)
	return len(w.stamps)
}

// Forget drops all state for key. Called when a bot is deleted.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.m, key)
	l.mu.Unlock()
}

func (w *window) prune(now time.Time, span time.Duration) {
	cutoff := now.Add(-span)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}
