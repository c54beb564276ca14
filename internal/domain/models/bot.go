package models

import "time"

// BotState is the lifecycle state of one decision loop.
type BotState string

const (
	StateStarting BotState = "STARTING"
	StateActive   BotState = "ACTIVE"
	StateStopped  BotState = "STOPPED"
	StateError    BotState = "ERROR"
)

// RiskLimits are account-level guardrails. Read-only during a cycle;
// replaced wholesale between cycles via UpdateRiskLimits.
type RiskLimits struct {
	BalanceFloorFraction float64 `json:"balance_floor_fraction" yaml:"balance_floor_fraction"`
	MaxTradeFraction     float64 `json:"max_trade_fraction" yaml:"max_trade_fraction"`
	MaxDailyLossFraction float64 `json:"max_daily_loss_fraction" yaml:"max_daily_loss_fraction"`
	TakeProfit           float64 `json:"take_profit" yaml:"take_profit"`
	StopLoss             float64 `json:"stop_loss" yaml:"stop_loss"`
	MaxDecisionsPerHour  int     `json:"max_decisions_per_hour" yaml:"max_decisions_per_hour"`
}

// RecoverySnapshot is a read-only view of the staking controller state.
type RecoverySnapshot struct {
	BaseStake       float64 `json:"base_stake"`
	Multiplier      float64 `json:"multiplier"`
	Step            int     `json:"step"`
	MaxSteps        int     `json:"max_steps"`
	RepeatCount     int     `json:"repeat_count"`
	MaxRepeats      int     `json:"max_repeats"`
	AccumulatedLoss float64 `json:"accumulated_loss"`
	InRecovery      bool    `json:"in_recovery"`
	NextStake       float64 `json:"next_stake"`
}

// BotRuntimeState is the status snapshot exposed by the control surface.
// Owned exclusively by one orchestrator; callers get copies.
type BotRuntimeState struct {
	BotID          string           `json:"bot_id"`
	Symbol         string           `json:"symbol"`
	State          BotState         `json:"state"`
	StopReason     string           `json:"stop_reason,omitempty"`
	InitialBalance float64          `json:"initial_balance"`
	Balance        float64          `json:"balance"`
	DailyProfit    float64          `json:"daily_profit"`
	TotalTrades    int              `json:"total_trades"`
	WinningTrades  int              `json:"winning_trades"`
	WinRate        float64          `json:"win_rate"`
	CurrentStreak  int              `json:"current_streak"`
	BestStreak     int              `json:"best_streak"`
	Recovery       RecoverySnapshot `json:"recovery"`
	Limits         RiskLimits       `json:"limits"`
	StartedAt      time.Time        `json:"started_at,omitempty"`
	LastDecisionAt time.Time        `json:"last_decision_at,omitempty"`
}
