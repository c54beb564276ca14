package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
)

func ticksFromDigits(digits ...int) []models.TickSample {
	out := make([]models.TickSample, 0, len(digits))
	for _, d := range digits {
		out = append(out, models.TickSample{Symbol: "R_100", LastDigit: d})
	}
	return out
}

func defaultConfig() Config {
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

func TestComputeInsufficientData(t *testing.T) {
	_, err := Compute("R_100", ticksFromDigits(1, 2, 3), defaultConfig())
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeAllEven(t *testing.T) {
	digits := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		digits = append(digits, (i%5)*2) // 0,2,4,6,8 repeating
	}
	stats, err := Compute("R_100", ticksFromDigits(digits...), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 20, stats.SampleSize)
	assert.Equal(t, 100.0, stats.EvenPercentage)
	assert.Equal(t, 0.0, stats.OddPercentage)
	assert.ElementsMatch(t, []int{0, 2, 4, 6, 8}, stats.HotDigits)
	assert.ElementsMatch(t, []int{1, 3, 5, 7, 9}, stats.ColdDigits)
	assert.Equal(t, 5, stats.DistinctDigits)
}

func TestComputePercentagesSumTo100(t *testing.T) {
	digits := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 9, 9, 4, 4, 2, 7, 1, 0, 5, 8}
	stats, err := Compute("R_50", ticksFromDigits(digits...), defaultConfig())
	require.NoError(t, err)

	sum := 0.0
	for _, dc := range stats.Digits {
		sum += dc.Percentage
	}
	assert.InDelta(t, 100, sum, 0.01)
	assert.InDelta(t, 100, stats.EvenPercentage+stats.OddPercentage, 0.01)
	assert.InDelta(t, 100, stats.OverPercentage+stats.UnderPercentage+stats.EqualPercentage, 0.01)
}

func TestComputeDeviation(t *testing.T) {
	// 10 ticks, digit 7 appears 3 times: 30% means +20 deviation.
	digits := []int{7, 7, 7, 0, 1, 2, 3, 4, 5, 6}
	stats, err := Compute("R_25", ticksFromDigits(digits...), defaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 20, stats.Digits[7].Deviation, 1e-9)
	assert.InDelta(t, 0, stats.Digits[0].Deviation, 1e-9)
	assert.InDelta(t, -10, stats.Digits[8].Deviation, 1e-9)
}

func TestComputeOverUnderSplit(t *testing.T) {
	// split 5: over = 6..9, under = 0..4, equal = 5
	digits := []int{6, 7, 8, 9, 6, 0, 1, 2, 5, 5}
	stats, err := Compute("R_10", ticksFromDigits(digits...), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.OverCount)
	assert.Equal(t, 3, stats.UnderCount)
	assert.Equal(t, 2, stats.EqualCount)
	assert.Equal(t, 50.0, stats.OverPercentage)
}

func TestTrailingParityStreak(t *testing.T) {
	stats, err := Compute("R_10", ticksFromDigits(1, 3, 2, 4, 6, 8, 0, 2, 4, 6), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.ParityStreak)
	assert.Equal(t, 0, stats.StreakParity)

	stats, err = Compute("R_10", ticksFromDigits(2, 2, 2, 2, 2, 2, 2, 2, 2, 9), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ParityStreak)
	assert.Equal(t, 1, stats.StreakParity)
}

func TestComputeDeterministic(t *testing.T) {
	ticks := ticksFromDigits(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 4, 4)
	for i := range ticks {
		ticks[i].Epoch = int64(1700000000 + i)
		ticks[i].Timestamp = time.Unix(ticks[i].Epoch, 0)
	}

	first, err := Compute("R_100", ticks, defaultConfig())
	require.NoError(t, err)
	second, err := Compute("R_100", ticks, defaultConfig())
	require.NoError(t, err)

	// identical window, identical snapshot, clock not involved
	assert.Equal(t, first, second)
	assert.Equal(t, ticks[len(ticks)-1].Timestamp, first.ComputedAt)
}

func TestComputeIgnoresOutOfRangeDigits(t *testing.T) {
	ticks := ticksFromDigits(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	ticks = append(ticks, models.TickSample{Symbol: "R_100", LastDigit: -1})
	stats, err := Compute("R_100", ticks, defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.EvenCount)
	assert.Equal(t, 5, stats.OddCount)
	assert.False(t, math.IsNaN(stats.EvenPercentage))
}
