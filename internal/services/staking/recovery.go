package staking

import (
	"errors"
	"fmt"
	"math"

	"digitpulse/internal/domain/models"
)

// ErrConfigInvalid indicates a staking configuration rejected at creation
// time. It never surfaces mid-loop.
var ErrConfigInvalid = errors.New("staking: invalid configuration")

// Config holds the recovery staking parameters for one bot.
type Config struct {
	BaseStake     float64
	Multiplier    float64
	MaxSteps      int
	MaxRepeats    int     // attempts per step before advancing
	CeilingFactor float64 // stake ceiling as a multiple of BaseStake
}

// Validate rejects parameter combinations the state machine cannot run with.
func (c Config) Validate() error {
	if c.BaseStake <= 0 {
		return fmt.Errorf("%w: base stake must be positive, got %v", ErrConfigInvalid, c.BaseStake)
	}
	if c.Multiplier <= 1 {
		return fmt.Errorf("%w: multiplier must be > 1, got %v", ErrConfigInvalid, c.Multiplier)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must be >= 0, got %d", ErrConfigInvalid, c.MaxSteps)
	}
	if c.MaxRepeats < 1 {
		return fmt.Errorf("%w: max repeats must be >= 1, got %d", ErrConfigInvalid, c.MaxRepeats)
	}
	if c.CeilingFactor <= 0 {
		return fmt.Errorf("%w: ceiling factor must be positive, got %v", ErrConfigInvalid, c.CeilingFactor)
	}
	return nil
}

// Controller is the martingale recovery state machine for a single bot.
// It is mutated only by the orchestrator's own loop, so it carries no lock.
type Controller struct {
	cfg             Config
	step            int
	repeatCount     int
	accumulatedLoss float64
}

// NewController validates cfg and returns a controller at step 0.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg}, nil
}

// NextStake returns the stake for the upcoming decision: the base stake at
// step 0, otherwise base x multiplier^step, always capped at the ceiling.
func (c *Controller) NextStake() float64 {
	if c.step == 0 {
		return c.cfg.BaseStake
	}
	stake := c.cfg.BaseStake * math.Pow(c.cfg.Multiplier, float64(c.step))
	ceiling := c.cfg.BaseStake * c.cfg.CeilingFactor
	if stake > ceiling {
		return ceiling
	}
	return stake
}

// RecordOutcome advances the state machine with the settled outcome.
// A WIN at any depth resets to step 0. A LOSS retries the current step until
// its repeats are spent, then climbs; exhausting the last step forces a full
// reset and abandons the unrecovered loss. The forced reset is deliberate
// policy, not error handling.
func (c *Controller) RecordOutcome(outcome models.Outcome) {
	if outcome.Won() {
		c.step = 0
		c.repeatCount = 0
		c.accumulatedLoss = 0
		return
	}

	c.accumulatedLoss += -outcome.Profit

	switch {
	case c.repeatCount < c.cfg.MaxRepeats-1:
		c.repeatCount++
	case c.step < c.cfg.MaxSteps:
		c.step++
		c.repeatCount = 0
	default:
		c.step = 0
		c.repeatCount = 0
		c.accumulatedLoss = 0
	}
}

// InRecovery reports whether the controller is above step 0.
func (c *Controller) InRecovery() bool { return c.step > 0 }

// Exhausted reports whether the next loss would force a reset.
func (c *Controller) Exhausted() bool {
	return c.step == c.cfg.MaxSteps && c.repeatCount == c.cfg.MaxRepeats-1
}

// Snapshot returns the current state for status reporting.
func (c *Controller) Snapshot() models.RecoverySnapshot {
	return models.RecoverySnapshot{
		BaseStake:       c.cfg.BaseStake,
		Multiplier:      c.cfg.Multiplier,
		Step:            c.step,
		MaxSteps:        c.cfg.MaxSteps,
		RepeatCount:     c.repeatCount,
		MaxRepeats:      c.cfg.MaxRepeats,
		AccumulatedLoss: c.accumulatedLoss,
		InRecovery:      c.InRecovery(),
		NextStake:       c.NextStake(),
	}
}
