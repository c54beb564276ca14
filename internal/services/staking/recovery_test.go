package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
)

func testConfig() Config {
	return Config{
		BaseStake:     10,
		Multiplier:    2,
		MaxSteps:      3,
		MaxRepeats:    1,
		CeilingFactor: 50,
	}
}

func loss(amount float64) models.Outcome {
	return models.Outcome{Result: models.OutcomeLoss, Profit: -amount}
}

func win(amount float64) models.Outcome {
	return models.Outcome{Result: models.OutcomeWin, Profit: amount}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(c *Config) {}, true},
		{"zero base", func(c *Config) { c.BaseStake = 0 }, false},
		{"multiplier one", func(c *Config) { c.Multiplier = 1 }, false},
		{"negative steps", func(c *Config) { c.MaxSteps = -1 }, false},
		{"zero repeats", func(c *Config) { c.MaxRepeats = 0 }, false},
		{"zero ceiling", func(c *Config) { c.CeilingFactor = 0 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantOK {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrConfigInvalid)
			}
		})
	}
}

func TestMartingaleProgression(t *testing.T) {
	c, err := NewController(testConfig())
	require.NoError(t, err)

	want := []float64{10, 20, 40, 80}
	for _, stake := range want {
		assert.Equal(t, stake, c.NextStake())
		c.RecordOutcome(loss(stake))
	}
}

func TestCeilingEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 20
	c, err := NewController(cfg)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		c.RecordOutcome(loss(c.NextStake()))
	}
	// 10 * 2^20 would be over ten million; ceiling is 50x base.
	assert.Equal(t, 500.0, c.NextStake())
}

func TestWinResetsAtAnyDepth(t *testing.T) {
	c, err := NewController(testConfig())
	require.NoError(t, err)

	c.RecordOutcome(loss(10))
	c.RecordOutcome(loss(20))
	assert.True(t, c.InRecovery())

	c.RecordOutcome(win(38))
	assert.False(t, c.InRecovery())
	assert.Equal(t, 10.0, c.NextStake())

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Step)
	assert.Equal(t, 0, snap.RepeatCount)
	assert.Equal(t, 0.0, snap.AccumulatedLoss)
}

func TestRepeatsBeforeAdvancing(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRepeats = 3
	c, err := NewController(cfg)
	require.NoError(t, err)

	// two losses retry step 0, the third advances
	c.RecordOutcome(loss(10))
	assert.Equal(t, 10.0, c.NextStake())
	c.RecordOutcome(loss(10))
	assert.Equal(t, 10.0, c.NextStake())
	c.RecordOutcome(loss(10))
	assert.Equal(t, 20.0, c.NextStake())

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Step)
	assert.Equal(t, 0, snap.RepeatCount)
}

func TestExhaustionForcesReset(t *testing.T) {
	c, err := NewController(testConfig())
	require.NoError(t, err)

	// climb to the last step
	for i := 0; i < 3; i++ {
		c.RecordOutcome(loss(c.NextStake()))
	}
	snap := c.Snapshot()
	assert.Equal(t, 3, snap.Step)
	assert.True(t, c.Exhausted())

	// one more loss abandons the accumulated loss and resets
	c.RecordOutcome(loss(c.NextStake()))
	snap = c.Snapshot()
	assert.Equal(t, 0, snap.Step)
	assert.Equal(t, 0.0, snap.AccumulatedLoss)
	assert.False(t, snap.InRecovery)
	assert.Equal(t, 10.0, c.NextStake())
}

func TestStepNeverExceedsMaxSteps(t *testing.T) {
	c, err := NewController(testConfig())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		c.RecordOutcome(loss(c.NextStake()))
		snap := c.Snapshot()
		assert.LessOrEqual(t, snap.Step, 3)
		assert.LessOrEqual(t, snap.RepeatCount, 0)
	}
}

func TestAccumulatedLossTracksLosses(t *testing.T) {
	c, err := NewController(testConfig())
	require.NoError(t, err)

	c.RecordOutcome(loss(10))
	c.RecordOutcome(loss(20))
	assert.Equal(t, 30.0, c.Snapshot().AccumulatedLoss)
}
