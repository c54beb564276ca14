package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
)

func mustCompute(t *testing.T, digits []int, cfg Config) *models.DigitStatistics {
	t.Helper()
	stats, err := Compute("R_100", ticksFromDigits(digits...), cfg)
	require.NoError(t, err)
	return stats
}

func TestScoreProducesOneSignalPerFamily(t *testing.T) {
	cfg := defaultConfig()
	stats := mustCompute(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, cfg)

	signals := Score(stats, cfg)
	require.Len(t, signals, 3)
	assert.Equal(t, models.FamilyParity, signals[0].Family)
	assert.Equal(t, models.FamilyOverUnder, signals[1].Family)
	assert.Equal(t, models.FamilyMatchDiffer, signals[2].Family)
	for _, s := range signals {
		assert.Equal(t, s.Confidence+s.Bonus, s.Score)
		assert.LessOrEqual(t, s.Bonus, maxPatternBonus)
	}
}

func TestScoreAllEvenParityConfidence(t *testing.T) {
	cfg := defaultConfig()
	digits := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		digits = append(digits, (i%5)*2)
	}
	stats := mustCompute(t, digits, cfg)

	signals := Score(stats, cfg)
	parity := signals[0]
	assert.Equal(t, models.DirEven, parity.Direction)
	assert.Equal(t, 100.0, parity.Confidence)
}

func TestScoreOverUnderDirection(t *testing.T) {
	cfg := defaultConfig()
	stats := mustCompute(t, []int{0, 1, 2, 3, 4, 0, 1, 2, 9, 8}, cfg)

	ou := Score(stats, cfg)[1]
	assert.Equal(t, models.DirUnder, ou.Direction)
	assert.Equal(t, 80.0, ou.Confidence)
	assert.Equal(t, 5, ou.TargetDigit)
}

func TestScoreMatchDifferPrefersDiffer(t *testing.T) {
	cfg := defaultConfig()
	// digit 9 never appears: differ 9 has confidence 100.
	stats := mustCompute(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 0}, cfg)

	md := Score(stats, cfg)[2]
	assert.Equal(t, models.DirDiffer, md.Direction)
	assert.Equal(t, 9, md.TargetDigit)
	assert.Equal(t, 100.0, md.Confidence)
}

func TestScoreMatchDifferTargetOverride(t *testing.T) {
	cfg := defaultConfig()
	cfg.TargetDigit = 4

	// digit 4 dominates so match on the override wins over differ.
	stats := mustCompute(t, []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 1}, cfg)
	md := Score(stats, cfg)[2]
	assert.Equal(t, models.DirMatch, md.Direction)
	assert.Equal(t, 4, md.TargetDigit)
	assert.Equal(t, 90.0, md.Confidence)
}

func TestSelectTieBreakLowestFamily(t *testing.T) {
	a := models.TradeSignal{Family: models.FamilyMatchDiffer, Score: 80}
	b := models.TradeSignal{Family: models.FamilyParity, Score: 80}
	got := pickBest([]models.TradeSignal{a, b})
	assert.Equal(t, models.FamilyParity, got.Family)
}

func TestSelectBelowThreshold(t *testing.T) {
	cfg := defaultConfig()
	cfg.Family = "parity"
	cfg.MinConfidence = 99

	stats := mustCompute(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, cfg)
	_, err := Select(stats, cfg)
	require.ErrorIs(t, err, ErrNoQualifyingSignal)

	cfg.AlwaysSignal = true
	sig, err := Select(stats, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.FamilyParity, sig.Family)
	assert.InDelta(t, 99.1, sig.Confidence, 1e-9)
	assert.Contains(t, sig.Rationale, "fallback")
}

func TestSelectDropsSubMinimumBeforeRanking(t *testing.T) {
	cfg := defaultConfig()
	cfg.MinConfidence = 96
	cfg.TargetDigit = 9

	digits := make([]int, 0, 100)
	add := func(d, n int) {
		for i := 0; i < n; i++ {
			digits = append(digits, d)
		}
	}
	add(0, 24)
	add(2, 25)
	add(4, 14)
	add(6, 14)
	add(8, 14)
	add(1, 4)
	add(9, 1)
	digits = append(digits, 0, 2, 0, 2)
	stats := mustCompute(t, digits, cfg)

	// parity scores highest but sits below the minimum; differ qualifies and
	// must win despite the lower score.
	signals := Score(stats, cfg)
	require.Greater(t, signals[0].Score, signals[2].Score)
	require.Less(t, signals[0].Confidence, cfg.MinConfidence)
	require.GreaterOrEqual(t, signals[2].Confidence, cfg.MinConfidence)

	sig, err := Select(stats, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.FamilyMatchDiffer, sig.Family)
	assert.Equal(t, models.DirDiffer, sig.Direction)
	assert.InDelta(t, 99, sig.Confidence, 1e-9)
}

func TestSelectFamilyFilter(t *testing.T) {
	cfg := defaultConfig()
	cfg.Family = "over_under"
	cfg.MinConfidence = 0

	stats := mustCompute(t, []int{6, 7, 8, 9, 6, 7, 8, 9, 6, 7}, cfg)
	sig, err := Select(stats, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.FamilyOverUnder, sig.Family)
	assert.Equal(t, models.DirOver, sig.Direction)
}

func TestSelectDirectionFilter(t *testing.T) {
	cfg := defaultConfig()
	cfg.Family = "parity"
	cfg.Direction = "ODD"
	cfg.MinConfidence = 0

	// window is mostly even, so the parity candidate is EVEN and the
	// forced ODD direction filters everything out.
	stats := mustCompute(t, []int{0, 2, 4, 6, 8, 0, 2, 4, 6, 1}, cfg)
	_, err := Select(stats, cfg)
	require.ErrorIs(t, err, ErrNoQualifyingSignal)
}
