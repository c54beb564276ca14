package repository

import (
	"context"

	"digitpulse/internal/domain/models"
)

// MarketStream is a live tick feed (the upstream gateway's WebSocket).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TickSample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickSource provides read access to the recent tick window for a symbol,
// most-recent-last. It may return fewer ticks than requested and must never
// block indefinitely; callers bound the wait with ctx.
type TickSource interface {
	GetRecentTicks(ctx context.Context, symbol string, count int) ([]models.TickSample, error)
}

// Executor submits a decision and reports its settlement. Synchronous
// backends return the outcome immediately; asynchronous ones block until
// settlement or ctx expiry.
type Executor interface {
	SubmitDecision(ctx context.Context, d models.Decision) (models.Outcome, error)
}

// TradeStore is the fire-and-forget durability hook for settled trades.
// Failures are logged by callers and never abort a decision loop.
type TradeStore interface {
	PersistTrade(ctx context.Context, d models.Decision, o models.Outcome) error
	Close() error
}

// TickArchive stores raw ticks for later analysis.
type TickArchive interface {
	Store(ctx context.Context, t *models.TickSample) error
	StoreBatch(ctx context.Context, ticks []*models.TickSample) error
	Close() error
}

// Metrics is the engine-facing observability port.
type Metrics interface {
	RecordTick(symbol string, price float64)
	RecordDecision(symbol, family, outcome string)
	RecordStake(botID string, stake float64)
	RecordBalance(botID string, balance float64)
	RecordRecoveryStep(botID string, step int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
