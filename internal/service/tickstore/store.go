package tickstore

import (
	"context"
	"sync"

	"digitpulse/internal/domain/models"
)

const DefaultCapacity = 2000

// ring is a fixed-capacity circular buffer of tick samples.
type ring struct {
	buf  []models.TickSample
	head int // next write position
	size int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]models.TickSample, capacity)}
}

func (r *ring) push(t models.TickSample) {
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// recent copies out the n most recent samples, oldest first.
func (r *ring) recent(n int) []models.TickSample {
	if n > r.size {
		n = r.size
	}
	out := make([]models.TickSample, n)
	start := (r.head - n + len(r.buf)) % len(r.buf)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// Store keeps a bounded in-memory tick window per symbol. Writers are the
// market stream collector; readers are bot loops and the HTTP layer, which
// only ever see copies.
type Store struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string]*ring
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity, rings: make(map[string]*ring)}
}

// Append records one tick, evicting the oldest sample once the symbol's
// window is full.
func (s *Store) Append(t models.TickSample) {
	s.mu.Lock()
	r, ok := s.rings[t.Symbol]
	if !ok {
		r = newRing(s.capacity)
		s.rings[t.Symbol] = r
	}
	r.push(t)
	s.mu.Unlock()
}

// GetRecentTicks returns up to count most recent samples for symbol,
// most-recent-last. It may return fewer than requested and never blocks.
func (s *Store) GetRecentTicks(ctx context.Context, symbol string, count int) ([]models.TickSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	r, ok := s.rings[symbol]
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	out := r.recent(count)
	s.mu.RUnlock()
	return out, nil
}

// Size returns the number of buffered samples for symbol.
func (s *Store) Size(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rings[symbol]; ok {
		return r.size
	}
	return 0
}

// Symbols lists the symbols currently held.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rings))
	for sym := range s.rings {
		out = append(out, sym)
	}
	return out
}
