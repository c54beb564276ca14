package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	"digitpulse/internal/service/ratelimit"
	"digitpulse/internal/service/tickstore"
	"digitpulse/internal/services/analysis"
	"digitpulse/internal/services/risk"
	"digitpulse/internal/services/staking"
	"digitpulse/pkg/logger"
	"digitpulse/pkg/util"
)

// BotParams carries everything needed to build one bot instance.
type BotParams struct {
	ID             string
	Name           string
	Symbol         string
	Analysis       analysis.Config
	Staking        staking.Config
	Limits         models.RiskLimits
	InitialBalance float64
	Interval       time.Duration
	FetchTimeout   time.Duration
	SettleTimeout  time.Duration
	ErrorBackoff   time.Duration
}

// Bot is one decision loop instance. All engine state (recovery, runtime
// counters) is written only by the bot's own Run goroutine; the mutex exists
// for concurrent status reads and between-cycle limit updates.
type Bot struct {
	params   BotParams
	analyzer *tickstore.CachedAnalyzer
	recovery *staking.Controller
	gate     *risk.Gate
	executor drepo.Executor
	recorder *TradeRecorder
	limiter  *ratelimit.Limiter
	metrics  drepo.Metrics
	log      *logger.Logger

	mu      sync.RWMutex
	state   models.BotRuntimeState
	limits  models.RiskLimits
	stopped atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	dayMark time.Time
}

// NewBot validates the staking parameters and builds a bot in STARTING
// state. Invalid configuration fails here and never inside the loop.
func NewBot(
	params BotParams,
	analyzer *tickstore.CachedAnalyzer,
	executor drepo.Executor,
	recorder *TradeRecorder,
	limiter *ratelimit.Limiter,
	metrics drepo.Metrics,
	log *logger.Logger,
) (*Bot, error) {
	recovery, err := staking.NewController(params.Staking)
	if err != nil {
		return nil, err
	}
	// The fallback trades a declared family, never whatever scored best.
	if params.Analysis.AlwaysSignal && (params.Analysis.Family == "" || params.Analysis.Family == "auto") {
		return nil, errors.New("always_signal requires a concrete family")
	}
	if params.Interval <= 0 {
		params.Interval = 3 * time.Second
	}
	if params.FetchTimeout <= 0 {
		params.FetchTimeout = 2 * time.Second
	}
	if params.SettleTimeout <= 0 {
		params.SettleTimeout = 30 * time.Second
	}
	if params.ErrorBackoff <= 0 {
		params.ErrorBackoff = 5 * time.Second
	}

	b := &Bot{
		params:   params,
		analyzer: analyzer,
		recovery: recovery,
		gate:     risk.NewGate(),
		executor: executor,
		recorder: recorder,
		limiter:  limiter,
		metrics:  metrics,
		log:      log.With(logger.String("bot_id", params.ID), logger.String("symbol", params.Symbol)),
		limits:   params.Limits,
		done:     make(chan struct{}),
		dayMark:  util.DayStart(time.Now()),
	}
	b.state = models.BotRuntimeState{
		BotID:          params.ID,
		Symbol:         params.Symbol,
		State:          models.StateStarting,
		InitialBalance: params.InitialBalance,
		Balance:        params.InitialBalance,
		Recovery:       recovery.Snapshot(),
		Limits:         params.Limits,
	}
	return b, nil
}

// Start launches the decision loop.
func (b *Bot) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.mu.Lock()
	b.state.State = models.StateActive
	b.state.StartedAt = time.Now()
	b.mu.Unlock()

	go b.run(runCtx)
	b.log.Info("bot started")
}

// Stop requests a cooperative stop. The loop observes the flag at the top of
// the cycle and around every suspension point; no decision is submitted
// after a stop observed before submission.
func (b *Bot) Stop() {
	if b.stopped.Swap(true) {
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.log.Info("bot stop requested")
}

// Done is closed when the loop has fully exited.
func (b *Bot) Done() <-chan struct{} { return b.done }

// Status returns a copy of the runtime state.
func (b *Bot) Status() models.BotRuntimeState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := b.state
	snap.Recovery = b.recovery.Snapshot()
	snap.Limits = b.limits
	if snap.TotalTrades > 0 {
		snap.WinRate = float64(snap.WinningTrades) / float64(snap.TotalTrades) * 100
	}
	return snap
}

// UpdateLimits applies a partial limits update. It takes effect at the next
// cycle, never mid-cycle.
func (b *Bot) UpdateLimits(req models.RiskLimitsUpdateRequest) models.RiskLimits {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req.BalanceFloorFraction != nil {
		b.limits.BalanceFloorFraction = *req.BalanceFloorFraction
	}
	if req.MaxTradeFraction != nil {
		b.limits.MaxTradeFraction = *req.MaxTradeFraction
	}
	if req.MaxDailyLossFraction != nil {
		b.limits.MaxDailyLossFraction = *req.MaxDailyLossFraction
	}
	if req.TakeProfit != nil {
		b.limits.TakeProfit = *req.TakeProfit
	}
	if req.StopLoss != nil {
		b.limits.StopLoss = *req.StopLoss
	}
	if req.MaxDecisionsPerHour != nil {
		b.limits.MaxDecisionsPerHour = *req.MaxDecisionsPerHour
	}
	b.state.Limits = b.limits
	return b.limits
}

func (b *Bot) run(ctx context.Context) {
	defer close(b.done)

	for {
		if b.halted(ctx) {
			b.markStopped("stop requested", false)
			return
		}

		b.rolloverDay()

		if !b.cycle(ctx) {
			return
		}

		if !b.sleep(ctx, b.params.Interval) {
			b.markStopped("stop requested", false)
			return
		}
	}
}

// cycle runs one decision cycle. It returns false when the loop must exit.
func (b *Bot) cycle(ctx context.Context) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, b.params.FetchTimeout)
	stats, err := b.analyzer.Stats(fetchCtx, b.params.Symbol, b.params.Analysis)
	cancel()
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			b.log.Debug("insufficient data, skipping cycle")
		} else {
			b.log.Warn("stats fetch failed", logger.Error(err))
			b.metrics.RecordError("stats")
		}
		return true
	}

	sig, err := analysis.Select(stats, b.params.Analysis)
	if err != nil {
		b.log.Debug("no qualifying signal, skipping cycle")
		return true
	}

	proposed := b.recovery.NextStake()
	b.mu.RLock()
	state := b.state
	limits := b.limits
	b.mu.RUnlock()

	stake, err := b.gate.Authorize(proposed, &state, limits)
	if err != nil {
		var denied *risk.DeniedError
		if errors.As(err, &denied) {
			if denied.Success {
				b.log.Info("take profit reached, stopping", logger.String("reason", denied.Reason))
			} else {
				b.log.Warn("risk gate denied, stopping", logger.String("reason", denied.Reason))
			}
			b.markStopped(denied.Reason, denied.Success)
		} else {
			b.log.Error("risk gate error", logger.Error(err))
			b.markError(err)
		}
		return false
	}

	// The rolling cap counts submissions only, so it is reserved here and not
	// at the top of the cycle: skipped cycles must not burn the budget. When
	// the cap is hit the remainder is slept out rather than dropped, and the
	// next cycle recomputes a fresh signal.
	b.mu.RLock()
	perHour := b.limits.MaxDecisionsPerHour
	b.mu.RUnlock()
	if wait := b.limiter.Reserve(b.params.ID, perHour); wait > 0 {
		b.log.Info("decision cap reached, sleeping", logger.Duration("wait", wait))
		if !b.sleep(ctx, wait) {
			b.markStopped("stop requested", false)
			return false
		}
		return true
	}

	if b.halted(ctx) {
		b.markStopped("stop requested", false)
		return false
	}

	decision := models.Decision{
		ID:        uuid.NewString(),
		BotID:     b.params.ID,
		Signal:    *sig,
		Stake:     stake,
		CreatedAt: time.Now(),
	}
	b.metrics.RecordStake(b.params.ID, stake)

	settleCtx, cancel := context.WithTimeout(ctx, b.params.SettleTimeout)
	outcome, err := b.executor.SubmitDecision(settleCtx, decision)
	cancel()
	if err != nil {
		// execution hiccup: skip this trade, back off, keep looping
		b.log.Warn("execution failed, backing off", logger.Error(err))
		b.metrics.RecordError("execution")
		if !b.sleep(ctx, b.params.ErrorBackoff) {
			b.markStopped("stop requested", false)
			return false
		}
		return true
	}

	b.settle(decision, outcome)
	b.recorder.Record(context.Background(), decision, outcome)
	return true
}

func (b *Bot) settle(d models.Decision, o models.Outcome) {
	b.recovery.RecordOutcome(o)

	b.mu.Lock()
	b.state.Balance += o.Profit
	b.state.DailyProfit += o.Profit
	b.state.TotalTrades++
	if o.Won() {
		b.state.WinningTrades++
		if b.state.CurrentStreak < 0 {
			b.state.CurrentStreak = 0
		}
		b.state.CurrentStreak++
		if b.state.CurrentStreak > b.state.BestStreak {
			b.state.BestStreak = b.state.CurrentStreak
		}
	} else {
		if b.state.CurrentStreak > 0 {
			b.state.CurrentStreak = 0
		}
		b.state.CurrentStreak--
	}
	b.state.LastDecisionAt = time.Now()
	balance := b.state.Balance
	b.mu.Unlock()

	snap := b.recovery.Snapshot()
	b.metrics.RecordDecision(d.Signal.Symbol, d.Signal.Family.String(), o.Result)
	b.metrics.RecordBalance(b.params.ID, balance)
	b.metrics.RecordRecoveryStep(b.params.ID, snap.Step)

	b.log.Info("decision settled",
		logger.String("decision_id", d.ID),
		logger.String("family", d.Signal.Family.String()),
		logger.String("direction", string(d.Signal.Direction)),
		logger.Float64("stake", d.Stake),
		logger.String("result", o.Result),
		logger.Float64("profit", o.Profit),
		logger.Int("recovery_step", snap.Step),
	)
	if snap.Step == 0 && !o.Won() {
		// a loss that lands back at step 0 means recovery was exhausted
		b.log.Warn("recovery exhausted, resetting to base stake")
	}
}

// rolloverDay resets daily counters at local midnight.
func (b *Bot) rolloverDay() {
	now := time.Now()
	if util.SameDay(b.dayMark, now) {
		return
	}
	b.dayMark = util.DayStart(now)
	b.mu.Lock()
	b.state.DailyProfit = 0
	b.mu.Unlock()
	b.log.Info("daily counters reset")
}

func (b *Bot) halted(ctx context.Context) bool {
	return b.stopped.Load() || ctx.Err() != nil
}

// sleep waits d, returning false when interrupted by a stop request.
func (b *Bot) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return !b.halted(ctx)
	}
}

func (b *Bot) markStopped(reason string, success bool) {
	b.stopped.Store(true)
	b.mu.Lock()
	b.state.State = models.StateStopped
	b.state.StopReason = reason
	if success {
		b.state.StopReason = reason + " (target reached)"
	}
	b.mu.Unlock()
}

func (b *Bot) markError(err error) {
	b.stopped.Store(true)
	b.mu.Lock()
	b.state.State = models.StateError
	b.state.StopReason = err.Error()
	b.mu.Unlock()
}
