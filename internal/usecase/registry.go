package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	"digitpulse/internal/service/ratelimit"
	"digitpulse/internal/service/tickstore"
	"digitpulse/internal/services/analysis"
	"digitpulse/internal/services/staking"
	"digitpulse/pkg/logger"
)

var ErrBotNotFound = errors.New("bot not found")

// Registry owns the set of bot instances and their lifecycle transitions.
// Bots never share engine state; the registry only hands out handles.
type Registry struct {
	analyzer *tickstore.CachedAnalyzer
	executor drepo.Executor
	recorder *TradeRecorder
	limiter  *ratelimit.Limiter
	metrics  drepo.Metrics
	log      *logger.Logger

	fetchTimeout  time.Duration
	settleTimeout time.Duration

	mu   sync.RWMutex
	bots map[string]*Bot
}

func NewRegistry(
	analyzer *tickstore.CachedAnalyzer,
	executor drepo.Executor,
	recorder *TradeRecorder,
	limiter *ratelimit.Limiter,
	metrics drepo.Metrics,
	log *logger.Logger,
	fetchTimeout, settleTimeout time.Duration,
) *Registry {
	return &Registry{
		analyzer:      analyzer,
		executor:      executor,
		recorder:      recorder,
		limiter:       limiter,
		metrics:       metrics,
		log:           log,
		fetchTimeout:  fetchTimeout,
		settleTimeout: settleTimeout,
		bots:          make(map[string]*Bot),
	}
}

// Create builds a bot from the validated request. The bot is registered in
// STARTING state and not yet running.
func (r *Registry) Create(req models.BotCreateRequest) (*Bot, error) {
	params := BotParams{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Symbol: req.Symbol,
		Analysis: analysis.Config{
			WindowSize:    req.WindowSize,
			MinSamples:    req.MinSamples,
			MinConfidence: req.MinConfidence,
			SplitDigit:    req.SplitDigit,
			HotColdMargin: req.HotColdMargin,
			Family:        req.Family,
			Direction:     req.Direction,
			TargetDigit:   req.TargetDigit,
			AlwaysSignal:  req.AlwaysSignal,
		},
		Staking: staking.Config{
			BaseStake:     req.BaseStake,
			Multiplier:    req.Multiplier,
			MaxSteps:      req.MaxSteps,
			MaxRepeats:    req.MaxRepeats,
			CeilingFactor: req.CeilingFactor,
		},
		Limits: models.RiskLimits{
			BalanceFloorFraction: req.BalanceFloorFraction,
			MaxTradeFraction:     req.MaxTradeFraction,
			MaxDailyLossFraction: req.MaxDailyLossFraction,
			TakeProfit:           req.TakeProfit,
			StopLoss:             req.StopLoss,
			MaxDecisionsPerHour:  req.MaxDecisionsPerHour,
		},
		InitialBalance: req.InitialBalance,
		Interval:       time.Duration(req.IntervalSeconds * float64(time.Second)),
		FetchTimeout:   r.fetchTimeout,
		SettleTimeout:  r.settleTimeout,
	}

	bot, err := NewBot(params, r.analyzer, r.executor, r.recorder, r.limiter, r.metrics, r.log)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.bots[params.ID] = bot
	r.mu.Unlock()

	r.log.Info("bot created",
		logger.String("bot_id", params.ID),
		logger.String("name", req.Name),
		logger.String("symbol", req.Symbol))
	return bot, nil
}

// Get returns a bot handle by id.
func (r *Registry) Get(id string) (*Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bot, ok := r.bots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBotNotFound, id)
	}
	return bot, nil
}

// List returns status snapshots of all registered bots.
func (r *Registry) List() []models.BotRuntimeState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.BotRuntimeState, 0, len(r.bots))
	for _, b := range r.bots {
		out = append(out, b.Status())
	}
	return out
}

// Start transitions a bot to ACTIVE.
func (r *Registry) Start(ctx context.Context, id string) error {
	bot, err := r.Get(id)
	if err != nil {
		return err
	}
	state := bot.Status().State
	if state == models.StateActive {
		return fmt.Errorf("bot %s already active", id)
	}
	if state != models.StateStarting {
		return fmt.Errorf("bot %s is %s and cannot be restarted", id, state)
	}
	bot.Start(ctx)
	return nil
}

// Stop requests a cooperative stop and waits for the loop to exit.
func (r *Registry) Stop(ctx context.Context, id string) error {
	bot, err := r.Get(id)
	if err != nil {
		return err
	}
	bot.Stop()
	if bot.Status().State == models.StateStarting {
		// never ran, nothing to wait for
		return nil
	}
	select {
	case <-bot.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delete stops a bot if needed and removes it. Its state is destroyed.
func (r *Registry) Delete(ctx context.Context, id string) error {
	bot, err := r.Get(id)
	if err != nil {
		return err
	}
	bot.Stop()

	if bot.Status().State != models.StateStarting {
		select {
		case <-bot.Done():
		case <-ctx.Done():
		}
	}

	r.mu.Lock()
	delete(r.bots, id)
	r.mu.Unlock()
	r.limiter.Forget(id)

	r.log.Info("bot deleted", logger.String("bot_id", id))
	return nil
}

// StopAll stops every running bot, used during shutdown.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	bots := make([]*Bot, 0, len(r.bots))
	for _, b := range r.bots {
		bots = append(bots, b)
	}
	r.mu.RUnlock()

	for _, b := range bots {
		b.Stop()
	}
	for _, b := range bots {
		if b.Status().State == models.StateStarting {
			continue
		}
		select {
		case <-b.Done():
		case <-ctx.Done():
			return
		}
	}
}
