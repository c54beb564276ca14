package usecase

import (
	"context"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	"digitpulse/pkg/logger"
	"digitpulse/pkg/queue"
)

const msgTypeTradeSettled = "trade.settled"

// settledTrade is the queue payload for one settled decision.
type settledTrade struct {
	Decision models.Decision `json:"decision"`
	Outcome  models.Outcome  `json:"outcome"`
}

// TradeRecorder decouples trade persistence from the decision loop: Record
// enqueues and returns immediately, workers write to the configured backend.
// Persistence failures are retried by the queue and never reach the loop.
type TradeRecorder struct {
	q   *queue.MemoryQueue
	log *logger.Logger
}

// persistJob writes a settled trade to the trade store.
type persistJob struct {
	store drepo.TradeStore
}

func (j *persistJob) Name() string { return "persist_trade" }
func (j *persistJob) Type() string { return msgTypeTradeSettled }

func (j *persistJob) Handle(ctx context.Context, payload interface{}) error {
	st, err := queue.ParsePayload[settledTrade](payload)
	if err != nil {
		return err
	}
	return j.store.PersistTrade(ctx, st.Decision, st.Outcome)
}

// NewTradeRecorder wires the persist job into an in-process queue.
func NewTradeRecorder(lgr *logger.Logger, cfg *queue.QueueConfig, store drepo.TradeStore) *TradeRecorder {
	q := queue.NewMemoryQueue(lgr, cfg, []queue.Job{&persistJob{store: store}})
	return &TradeRecorder{q: q, log: lgr}
}

// Start launches the queue workers.
func (r *TradeRecorder) Start() error { return r.q.Start() }

// Stop drains the queue.
func (r *TradeRecorder) Stop(ctx context.Context) error { return r.q.Stop(ctx) }

// Record enqueues a settled decision for persistence. Never blocks the
// caller; a full queue is logged and the trade is dropped.
func (r *TradeRecorder) Record(ctx context.Context, d models.Decision, o models.Outcome) {
	if err := r.q.Enqueue(ctx, msgTypeTradeSettled, settledTrade{Decision: d, Outcome: o}); err != nil {
		r.log.Warn("trade record dropped",
			logger.String("decision_id", d.ID),
			logger.Error(err))
	}
}
