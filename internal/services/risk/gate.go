package risk

import (
	"fmt"

	"digitpulse/internal/domain/models"
)

// Deny reasons, stable strings surfaced in status snapshots.
const (
	ReasonDailyLoss    = "daily_loss_limit"
	ReasonBalanceFloor = "balance_floor"
	ReasonTakeProfit   = "take_profit"
	ReasonStopLoss     = "stop_loss"
)

// DeniedError is returned when the gate vetoes trading for the session.
// Success marks the take-profit stop, which halts the bot but is not a
// failure.
type DeniedError struct {
	Reason  string
	Success bool
	Detail  string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("risk denied (%s): %s", e.Reason, e.Detail)
}

// Gate evaluates account guardrails for one bot. Stateless; all inputs come
// from the runtime state and limits passed per call.
type Gate struct{}

func NewGate() *Gate { return &Gate{} }

// Authorize checks the guardrails in order and returns the allowed stake,
// possibly reduced to the per-trade cap. A DeniedError means the bot must
// stop for the session.
func (g *Gate) Authorize(proposed float64, state *models.BotRuntimeState, limits models.RiskLimits) (float64, error) {
	if limits.MaxDailyLossFraction > 0 {
		maxLoss := limits.MaxDailyLossFraction * state.InitialBalance
		if -state.DailyProfit >= maxLoss {
			return 0, &DeniedError{
				Reason: ReasonDailyLoss,
				Detail: fmt.Sprintf("daily loss %.2f reached limit %.2f", -state.DailyProfit, maxLoss),
			}
		}
	}

	if limits.BalanceFloorFraction > 0 {
		floor := limits.BalanceFloorFraction * state.InitialBalance
		if state.Balance < floor {
			return 0, &DeniedError{
				Reason: ReasonBalanceFloor,
				Detail: fmt.Sprintf("balance %.2f below floor %.2f", state.Balance, floor),
			}
		}
	}

	if limits.TakeProfit > 0 && state.DailyProfit >= limits.TakeProfit {
		return 0, &DeniedError{
			Reason:  ReasonTakeProfit,
			Success: true,
			Detail:  fmt.Sprintf("daily profit %.2f reached target %.2f", state.DailyProfit, limits.TakeProfit),
		}
	}

	if limits.StopLoss > 0 && -state.DailyProfit >= limits.StopLoss {
		return 0, &DeniedError{
			Reason: ReasonStopLoss,
			Detail: fmt.Sprintf("daily loss %.2f reached stop %.2f", -state.DailyProfit, limits.StopLoss),
		}
	}

	allowed := proposed
	if limits.MaxTradeFraction > 0 {
		perTrade := limits.MaxTradeFraction * state.Balance
		if allowed > perTrade {
			allowed = perTrade
		}
	}
	if allowed > state.Balance {
		allowed = state.Balance
	}
	return allowed, nil
}
