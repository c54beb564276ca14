package models

import "time"

// ContractFamily is a tradable digit contract category.
type ContractFamily int

const (
	FamilyParity ContractFamily = iota // ordering is the deterministic tie-break
	FamilyOverUnder
	FamilyMatchDiffer
)

func (f ContractFamily) String() string {
	switch f {
	case FamilyParity:
		return "parity"
	case FamilyOverUnder:
		return "over_under"
	case FamilyMatchDiffer:
		return "match_differ"
	default:
		return "unknown"
	}
}

// Direction within a contract family.
type Direction string

const (
	DirEven   Direction = "EVEN"
	DirOdd    Direction = "ODD"
	DirOver   Direction = "OVER"
	DirUnder  Direction = "UNDER"
	DirMatch  Direction = "MATCH"
	DirDiffer Direction = "DIFFER"
)

// TradeSignal is one scored trade candidate. Immutable.
type TradeSignal struct {
	Symbol      string         `json:"symbol"`
	Family      ContractFamily `json:"family"`
	Direction   Direction      `json:"direction"`
	TargetDigit int            `json:"target_digit"` // threshold or match digit; -1 when unused
	Confidence  float64        `json:"confidence"`   // [0,100]
	Bonus       float64        `json:"bonus"`        // pattern/streak bonus, capped
	Score       float64        `json:"score"`        // confidence + bonus
	Rationale   string         `json:"rationale"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Outcome result classes for a settled decision.
const (
	OutcomeWin  = "WIN"
	OutcomeLoss = "LOSS"
)

// Decision pairs the winning signal with the authorized stake for one cycle.
type Decision struct {
	ID        string      `json:"id"`
	BotID     string      `json:"bot_id"`
	Signal    TradeSignal `json:"signal"`
	Stake     float64     `json:"stake"`
	CreatedAt time.Time   `json:"created_at"`
}

// Outcome is the settlement of a submitted decision.
type Outcome struct {
	DecisionID string    `json:"decision_id"`
	Result     string    `json:"result"` // WIN or LOSS
	Profit     float64   `json:"profit"` // realized P&L, negative on loss
	SettledAt  time.Time `json:"settled_at"`
}

// Won reports whether the outcome settled as a win.
func (o Outcome) Won() bool { return o.Result == OutcomeWin }
