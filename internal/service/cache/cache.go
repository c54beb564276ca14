package cache

import (
	"fmt"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// StatsKey builds the cache key for a digit statistics snapshot. Every input
// the computation depends on is part of the key, so bots with different
// settings never share an entry: the hot/cold margin changes the hot and cold
// sets, and the minimum sample count changes whether a window qualifies at
// all.
func StatsKey(symbol string, window, split, minSamples int, margin float64) string {
	return fmt.Sprintf("digitpulse:stats:%s:%d:%d:%d:%g", symbol, window, split, minSamples, margin)
}
