package execution

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"digitpulse/internal/domain/models"
)

// Simulator is a synchronous Executor for paper trading and tests. The win
// probability is the signal confidence; wins pay out a fixed fraction of the
// stake, losses forfeit the stake.
type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	payout float64
}

// NewSimulator creates a simulator with its own RNG. Pass a fixed seed for
// deterministic tests, 0 to seed from the clock.
func NewSimulator(payout float64, seed int64) *Simulator {
	if payout <= 0 {
		payout = 0.95
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		rng:    rand.New(rand.NewSource(seed)),
		payout: payout,
	}
}

// SubmitDecision settles immediately.
func (s *Simulator) SubmitDecision(ctx context.Context, d models.Decision) (models.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return models.Outcome{}, err
	}

	p := d.Signal.Confidence / 100
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	s.mu.Lock()
	won := s.rng.Float64() < p
	s.mu.Unlock()

	out := models.Outcome{
		DecisionID: d.ID,
		SettledAt:  time.Now(),
	}
	if won {
		out.Result = models.OutcomeWin
		out.Profit = d.Stake * s.payout
	} else {
		out.Result = models.OutcomeLoss
		out.Profit = -d.Stake
	}
	return out, nil
}
