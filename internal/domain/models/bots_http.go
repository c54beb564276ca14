package models

// Requests for the bot control HTTP endpoints. Defined in domain for consistency and reuse.

// BotCreateRequest creates a bot instance. Validation happens once at
// creation time; an invalid configuration never reaches a running loop.
type BotCreateRequest struct {
	Name   string `json:"name" default:"digit-bot" validate:"min=1,max=64"`
	Symbol string `json:"symbol" validate:"required"`

	// Engine
	WindowSize    int     `json:"window_size" default:"100" validate:"gte=10,lte=5000"`
	MinSamples    int     `json:"min_samples" default:"10" validate:"gte=1,lte=1000"`
	MinConfidence float64 `json:"min_confidence" default:"60" validate:"gte=0,lte=100"`
	SplitDigit    int     `json:"split_digit" default:"5" validate:"gte=1,lte=8"`
	HotColdMargin float64 `json:"hot_cold_margin" default:"5" validate:"gt=0,lte=50"`

	// Family selection: "auto" evaluates every family, otherwise the named
	// family/direction only.
	Family      string `json:"family" default:"auto" validate:"oneof=auto parity over_under match_differ"`
	Direction   string `json:"direction,omitempty" validate:"omitempty,oneof=EVEN ODD OVER UNDER MATCH DIFFER"`
	TargetDigit int    `json:"target_digit" default:"-1" validate:"gte=-1,lte=9"`

	// AlwaysSignal enables the explicit fallback: when no signal clears the
	// minimum, trade the configured family/direction at floor confidence.
	AlwaysSignal bool `json:"always_signal"`

	// Staking
	BaseStake     float64 `json:"base_stake" default:"10" validate:"gte=1,lte=1000"`
	Multiplier    float64 `json:"multiplier" default:"2" validate:"gt=1,lte=5"`
	MaxSteps      int     `json:"max_steps" default:"5" validate:"gte=0,lte=10"`
	MaxRepeats    int     `json:"max_repeats" default:"1" validate:"gte=1,lte=5"`
	CeilingFactor float64 `json:"ceiling_factor" default:"50" validate:"gt=1,lte=500"`

	// Risk
	InitialBalance       float64 `json:"initial_balance" default:"1000" validate:"gt=0"`
	BalanceFloorFraction float64 `json:"balance_floor_fraction" default:"0.2" validate:"gte=0,lt=1"`
	MaxTradeFraction     float64 `json:"max_trade_fraction" default:"0.1" validate:"gt=0,lte=1"`
	MaxDailyLossFraction float64 `json:"max_daily_loss_fraction" default:"0.1" validate:"gt=0,lte=1"`
	TakeProfit           float64 `json:"take_profit" default:"500" validate:"gte=0"`
	StopLoss             float64 `json:"stop_loss" default:"200" validate:"gte=0"`
	MaxDecisionsPerHour  int     `json:"max_decisions_per_hour" default:"60" validate:"gte=1,lte=3600"`

	// Loop
	IntervalSeconds float64 `json:"interval_seconds" default:"3" validate:"gte=0.5,lte=3600"`
}

// RiskLimitsUpdateRequest is a partial update; nil fields keep their value.
// Applied between cycles only.
type RiskLimitsUpdateRequest struct {
	BalanceFloorFraction *float64 `json:"balance_floor_fraction,omitempty" validate:"omitempty,gte=0,lt=1"`
	MaxTradeFraction     *float64 `json:"max_trade_fraction,omitempty" validate:"omitempty,gt=0,lte=1"`
	MaxDailyLossFraction *float64 `json:"max_daily_loss_fraction,omitempty" validate:"omitempty,gt=0,lte=1"`
	TakeProfit           *float64 `json:"take_profit,omitempty" validate:"omitempty,gte=0"`
	StopLoss             *float64 `json:"stop_loss,omitempty" validate:"omitempty,gte=0"`
	MaxDecisionsPerHour  *int     `json:"max_decisions_per_hour,omitempty" validate:"omitempty,gte=1,lte=3600"`
}

// TicksRequest queries the recent tick window for a symbol.
type TicksRequest struct {
	Count int `query:"count" json:"count" default:"100" validate:"gte=1,lte=2000"`
}

// AnalysisRequest computes digit statistics over the latest window.
type AnalysisRequest struct {
	Count int `query:"count" json:"count" default:"100" validate:"gte=10,lte=2000"`
}

// TradesRequest queries settled trade history for a bot, newest first.
type TradesRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
