package tickstore

import (
	"context"
	"encoding/json"
	"time"

	"digitpulse/internal/domain/models"
	"digitpulse/internal/domain/repository"
	"digitpulse/internal/service/cache"
	"digitpulse/internal/services/analysis"
)

// CachedAnalyzer computes digit statistics over the live tick window with a
// short-TTL cache in front, so several bots on the same symbol (and the HTTP
// layer) do not recompute identical snapshots within the same second.
type CachedAnalyzer struct {
	src   repository.TickSource
	cache cache.BytesCache
	ttl   time.Duration
}

func NewCachedAnalyzer(src repository.TickSource, c cache.BytesCache, ttl time.Duration) *CachedAnalyzer {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &CachedAnalyzer{src: src, cache: c, ttl: ttl}
}

// Stats returns a statistics snapshot for symbol under cfg, served from
// cache when fresh. Cache failures fall through to recomputation.
func (a *CachedAnalyzer) Stats(ctx context.Context, symbol string, cfg analysis.Config) (*models.DigitStatistics, error) {
	key := cache.StatsKey(symbol, cfg.WindowSize, cfg.SplitDigit, cfg.MinSamples, cfg.HotColdMargin)
	if b, ok, err := a.cache.GetBytes(key); err == nil && ok {
		var stats models.DigitStatistics
		if err := json.Unmarshal(b, &stats); err == nil {
			return &stats, nil
		}
	}

	window, err := a.src.GetRecentTicks(ctx, symbol, cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	stats, err := analysis.Compute(symbol, window, cfg)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(stats); err == nil {
		_ = a.cache.SetBytes(key, b, a.ttl)
	}
	return stats, nil
}
