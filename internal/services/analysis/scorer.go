package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"digitpulse/internal/domain/models"
)

// ErrNoQualifyingSignal is returned by Select when no signal reaches the
// configured minimum confidence and AlwaysSignal is off.
var ErrNoQualifyingSignal = errors.New("analysis: no signal meets minimum confidence")

const maxPatternBonus = 20.0

// Score produces one candidate signal per contract family from the
// statistics. Confidence is the observed frequency of the chosen direction;
// the pattern bonus rewards supporting hot digits, parity streaks and low
// digit variety, capped at maxPatternBonus.
func Score(stats *models.DigitStatistics, cfg Config) []models.TradeSignal {
	now := time.Now()
	signals := []models.TradeSignal{
		scoreParity(stats, now),
		scoreOverUnder(stats, now),
		scoreMatchDiffer(stats, cfg, now),
	}
	for i := range signals {
		signals[i].Bonus = patternBonus(stats, signals[i])
		signals[i].Score = signals[i].Confidence + signals[i].Bonus
	}
	return signals
}

func scoreParity(stats *models.DigitStatistics, now time.Time) models.TradeSignal {
	dir := models.DirEven
	conf := stats.EvenPercentage
	if stats.OddPercentage > stats.EvenPercentage {
		dir = models.DirOdd
		conf = stats.OddPercentage
	}
	return models.TradeSignal{
		Symbol:      stats.Symbol,
		Family:      models.FamilyParity,
		Direction:   dir,
		TargetDigit: -1,
		Confidence:  conf,
		Rationale:   fmt.Sprintf("%s digits at %.1f%% over %d ticks", dir, conf, stats.SampleSize),
		CreatedAt:   now,
	}
}

func scoreOverUnder(stats *models.DigitStatistics, now time.Time) models.TradeSignal {
	dir := models.DirOver
	conf := stats.OverPercentage
	if stats.UnderPercentage > stats.OverPercentage {
		dir = models.DirUnder
		conf = stats.UnderPercentage
	}
	return models.TradeSignal{
		Symbol:      stats.Symbol,
		Family:      models.FamilyOverUnder,
		Direction:   dir,
		TargetDigit: stats.SplitDigit,
		Confidence:  conf,
		Rationale:   fmt.Sprintf("%s %d at %.1f%% over %d ticks", dir, stats.SplitDigit, conf, stats.SampleSize),
		CreatedAt:   now,
	}
}

func scoreMatchDiffer(stats *models.DigitStatistics, cfg Config, now time.Time) models.TradeSignal {
	hot := hottestDigit(stats)
	cold := coldestDigit(stats)
	if cfg.TargetDigit >= 0 && cfg.TargetDigit <= 9 {
		hot = stats.Digits[cfg.TargetDigit]
		cold = stats.Digits[cfg.TargetDigit]
	}

	// A differ bet wins whenever the next digit is anything but the target,
	// so its confidence is the complement of the coldest digit's frequency.
	matchConf := hot.Percentage
	differConf := 100 - cold.Percentage

	if differConf >= matchConf {
		return models.TradeSignal{
			Symbol:      stats.Symbol,
			Family:      models.FamilyMatchDiffer,
			Direction:   models.DirDiffer,
			TargetDigit: cold.Digit,
			Confidence:  differConf,
			Rationale:   fmt.Sprintf("differ %d, seen only %.1f%% over %d ticks", cold.Digit, cold.Percentage, stats.SampleSize),
			CreatedAt:   now,
		}
	}
	return models.TradeSignal{
		Symbol:      stats.Symbol,
		Family:      models.FamilyMatchDiffer,
		Direction:   models.DirMatch,
		TargetDigit: hot.Digit,
		Confidence:  matchConf,
		Rationale:   fmt.Sprintf("match %d at %.1f%% over %d ticks", hot.Digit, hot.Percentage, stats.SampleSize),
		CreatedAt:   now,
	}
}

// patternBonus scores supporting evidence beyond raw frequency.
func patternBonus(stats *models.DigitStatistics, sig models.TradeSignal) float64 {
	bonus := 0.0

	// Hot digits agreeing with the direction.
	for _, d := range stats.HotDigits {
		if digitSupports(d, sig, stats.SplitDigit) {
			bonus += 5
		}
	}

	// A long run of same-parity digits backs a parity call in that direction.
	streakDir := models.DirEven
	if stats.StreakParity == 1 {
		streakDir = models.DirOdd
	}
	if sig.Family == models.FamilyParity && stats.ParityStreak >= 3 && sig.Direction == streakDir {
		bonus += float64(stats.ParityStreak) * 2
		if bonus > maxPatternBonus {
			bonus = maxPatternBonus
		}
	}

	// A narrow digit set means the distribution is skewed.
	if stats.DistinctDigits <= 5 {
		bonus += 5
	}

	if bonus > maxPatternBonus {
		bonus = maxPatternBonus
	}
	return bonus
}

func digitSupports(d int, sig models.TradeSignal, split int) bool {
	switch sig.Direction {
	case models.DirEven:
		return d%2 == 0
	case models.DirOdd:
		return d%2 == 1
	case models.DirOver:
		return d > split
	case models.DirUnder:
		return d < split
	case models.DirMatch:
		return d == sig.TargetDigit
	case models.DirDiffer:
		return d != sig.TargetDigit
	}
	return false
}

// Select filters scored signals by the bot's family and direction settings,
// drops everything below the minimum confidence, and returns the survivor
// with the highest score. Ties resolve to the lowest family index. With
// AlwaysSignal an empty survivor set falls back to the best filtered
// candidate at floor confidence.
func Select(stats *models.DigitStatistics, cfg Config) (*models.TradeSignal, error) {
	candidates := Score(stats, cfg)

	filtered := candidates[:0:0]
	for _, s := range candidates {
		if cfg.Family != "" && cfg.Family != "auto" && s.Family.String() != cfg.Family {
			continue
		}
		if cfg.Direction != "" && !strings.EqualFold(string(s.Direction), cfg.Direction) {
			continue
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		return nil, ErrNoQualifyingSignal
	}

	// Confidence gates first; the score only ranks qualifying signals.
	qualified := filtered[:0:0]
	for _, s := range filtered {
		if s.Confidence >= cfg.MinConfidence {
			qualified = append(qualified, s)
		}
	}
	if len(qualified) > 0 {
		best := pickBest(qualified)
		return &best, nil
	}

	if !cfg.AlwaysSignal {
		return nil, ErrNoQualifyingSignal
	}
	// Explicit fallback policy: trade anyway at a floor confidence just
	// above the threshold, never at the unqualified raw value.
	best := pickBest(filtered)
	best.Confidence = cfg.MinConfidence + 0.1
	best.Score = best.Confidence + best.Bonus
	best.Rationale += " (fallback)"
	return &best, nil
}

func pickBest(signals []models.TradeSignal) models.TradeSignal {
	best := signals[0]
	for _, s := range signals[1:] {
		if s.Score > best.Score || (s.Score == best.Score && s.Family < best.Family) {
			best = s
		}
	}
	return best
}
