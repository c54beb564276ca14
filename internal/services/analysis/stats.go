package analysis

import (
	"errors"

	"digitpulse/internal/domain/models"
)

// ErrInsufficientData is returned when the tick window holds fewer samples
// than the configured minimum.
var ErrInsufficientData = errors.New("analysis: insufficient tick data")

// Config controls statistics computation and signal scoring for one bot.
type Config struct {
	WindowSize    int
	MinSamples    int
	MinConfidence float64
	SplitDigit    int
	HotColdMargin float64
	Family        string // "auto", "parity", "over_under", "match_differ"
	Direction     string // optional forced direction, empty = auto
	TargetDigit   int    // match/differ target, -1 = pick from hot/cold digits
	AlwaysSignal  bool
}

// DefaultConfig mirrors the defaults of the bot creation request.
func DefaultConfig() Config {
	return Config{
		WindowSize:    100,
		MinSamples:    10,
		MinConfidence: 60,
		SplitDigit:    5,
		HotColdMargin: 5,
		Family:        "auto",
		TargetDigit:   -1,
	}
}

const expectedDigitPct = 10.0

// Compute derives digit statistics from a window of ticks. The window is
// expected most-recent-last. Returns ErrInsufficientData when fewer than
// cfg.MinSamples ticks are present.
func Compute(symbol string, window []models.TickSample, cfg Config) (*models.DigitStatistics, error) {
	if len(window) == 0 || len(window) < cfg.MinSamples {
		return nil, ErrInsufficientData
	}

	// The timestamp comes from the window, not the clock, so identical
	// windows always yield identical snapshots.
	stats := &models.DigitStatistics{
		Symbol:     symbol,
		SampleSize: len(window),
		SplitDigit: cfg.SplitDigit,
		ComputedAt: window[len(window)-1].Timestamp,
	}

	var counts [10]int
	distinct := make(map[int]struct{}, 10)
	for _, t := range window {
		d := t.LastDigit
		if d < 0 || d > 9 {
			continue
		}
		counts[d]++
		distinct[d] = struct{}{}

		if d%2 == 0 {
			stats.EvenCount++
		} else {
			stats.OddCount++
		}
		switch {
		case d > cfg.SplitDigit:
			stats.OverCount++
		case d < cfg.SplitDigit:
			stats.UnderCount++
		default:
			stats.EqualCount++
		}
	}

	n := float64(stats.EvenCount + stats.OddCount)
	if n == 0 {
		return nil, ErrInsufficientData
	}

	for d := 0; d < 10; d++ {
		pct := float64(counts[d]) / n * 100
		stats.Digits[d] = models.DigitCount{
			Digit:      d,
			Count:      counts[d],
			Percentage: pct,
			Deviation:  pct - expectedDigitPct,
		}
		if pct >= expectedDigitPct+cfg.HotColdMargin {
			stats.HotDigits = append(stats.HotDigits, d)
		}
		if pct <= expectedDigitPct-cfg.HotColdMargin {
			stats.ColdDigits = append(stats.ColdDigits, d)
		}
	}

	stats.EvenPercentage = float64(stats.EvenCount) / n * 100
	stats.OddPercentage = float64(stats.OddCount) / n * 100
	stats.OverPercentage = float64(stats.OverCount) / n * 100
	stats.UnderPercentage = float64(stats.UnderCount) / n * 100
	stats.EqualPercentage = float64(stats.EqualCount) / n * 100
	stats.DistinctDigits = len(distinct)
	stats.ParityStreak, stats.StreakParity = trailingParityStreak(window)

	return stats, nil
}

// trailingParityStreak returns the length of the run of same-parity digits
// at the end of the window, and which parity it is (0 even, 1 odd).
func trailingParityStreak(window []models.TickSample) (int, int) {
	if len(window) == 0 {
		return 0, 0
	}
	last := window[len(window)-1].LastDigit
	parity := last % 2
	streak := 1
	for i := len(window) - 2; i >= 0; i-- {
		if window[i].LastDigit%2 != last%2 {
			break
		}
		streak++
	}
	return streak, parity
}

// hottestDigit returns the digit with the highest frequency; ties resolve to
// the lowest digit.
func hottestDigit(stats *models.DigitStatistics) models.DigitCount {
	best := stats.Digits[0]
	for d := 1; d < 10; d++ {
		if stats.Digits[d].Count > best.Count {
			best = stats.Digits[d]
		}
	}
	return best
}

// coldestDigit returns the digit with the lowest frequency; ties resolve to
// the lowest digit.
func coldestDigit(stats *models.DigitStatistics) models.DigitCount {
	best := stats.Digits[0]
	for d := 1; d < 10; d++ {
		if stats.Digits[d].Count < best.Count {
			best = stats.Digits[d]
		}
	}
	return best
}
