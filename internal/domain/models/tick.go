package models

import "time"

// TickSample is one price update for an instrument. Immutable once created.
type TickSample struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Epoch     int64     `json:"epoch"`
	Timestamp time.Time `json:"timestamp"`
	LastDigit int       `json:"last_digit"` // 0-9, last significant digit of the quote
}

// DigitCount holds the observed count and share for a single digit.
type DigitCount struct {
	Digit      int     `json:"digit"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Deviation  float64 `json:"deviation"` // percentage points vs uniform 10%
}

// DigitStatistics is a snapshot computed over a trailing tick window.
// It is rebuilt from scratch on every computation, never mutated in place.
type DigitStatistics struct {
	Symbol     string       `json:"symbol"`
	SampleSize int          `json:"sample_size"`
	Digits     [10]DigitCount `json:"digits"`

	EvenCount      int     `json:"even_count"`
	OddCount       int     `json:"odd_count"`
	EvenPercentage float64 `json:"even_percentage"`
	OddPercentage  float64 `json:"odd_percentage"`

	SplitDigit      int     `json:"split_digit"` // over/under boundary
	OverCount       int     `json:"over_count"`
	UnderCount      int     `json:"under_count"`
	EqualCount      int     `json:"equal_count"`
	OverPercentage  float64 `json:"over_percentage"`
	UnderPercentage float64 `json:"under_percentage"`
	EqualPercentage float64 `json:"equal_percentage"`

	HotDigits  []int `json:"hot_digits"`
	ColdDigits []int `json:"cold_digits"`

	// ParityStreak is the length of the trailing run of same-parity digits,
	// ending at the most recent tick. StreakParity is 0 for even, 1 for odd.
	ParityStreak int `json:"parity_streak"`
	StreakParity int `json:"streak_parity"`

	// DistinctDigits counts how many of the ten digits appear at least once.
	DistinctDigits int       `json:"distinct_digits"`
	ComputedAt     time.Time `json:"computed_at"`
}
