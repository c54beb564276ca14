package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitpulse/internal/domain/models"
)

func testState() *models.BotRuntimeState {
	return &models.BotRuntimeState{
		InitialBalance: 1000,
		Balance:        1000,
	}
}

func testLimits() models.RiskLimits {
	return models.RiskLimits{
		BalanceFloorFraction: 0.5,
		MaxTradeFraction:     0.05,
		MaxDailyLossFraction: 0.1,
		TakeProfit:           200,
		StopLoss:             150,
	}
}

func requireDenied(t *testing.T, err error) *DeniedError {
	t.Helper()
	var denied *DeniedError
	require.True(t, errors.As(err, &denied), "expected DeniedError, got %v", err)
	return denied
}

func TestAuthorizeAllows(t *testing.T) {
	g := NewGate()
	stake, err := g.Authorize(10, testState(), testLimits())
	require.NoError(t, err)
	assert.Equal(t, 10.0, stake)
}

func TestAuthorizeDailyLossDenied(t *testing.T) {
	g := NewGate()
	state := testState()
	state.DailyProfit = -100 // 10% of initial balance

	_, err := g.Authorize(1, state, testLimits())
	denied := requireDenied(t, err)
	assert.Equal(t, ReasonDailyLoss, denied.Reason)
	assert.False(t, denied.Success)
}

func TestAuthorizeBalanceFloorDenied(t *testing.T) {
	g := NewGate()
	state := testState()
	state.Balance = 499

	_, err := g.Authorize(10, state, testLimits())
	denied := requireDenied(t, err)
	assert.Equal(t, ReasonBalanceFloor, denied.Reason)
}

func TestAuthorizeTakeProfitIsSuccessStop(t *testing.T) {
	g := NewGate()
	state := testState()
	state.Balance = 1200
	state.DailyProfit = 200

	_, err := g.Authorize(10, state, testLimits())
	denied := requireDenied(t, err)
	assert.Equal(t, ReasonTakeProfit, denied.Reason)
	assert.True(t, denied.Success)
}

func TestAuthorizeStopLossDenied(t *testing.T) {
	g := NewGate()
	state := testState()
	limits := testLimits()
	limits.MaxDailyLossFraction = 0.5 // keep the earlier check quiet
	state.Balance = 850
	state.DailyProfit = -150

	_, err := g.Authorize(10, state, limits)
	denied := requireDenied(t, err)
	assert.Equal(t, ReasonStopLoss, denied.Reason)
}

func TestAuthorizeCapsStake(t *testing.T) {
	g := NewGate()
	stake, err := g.Authorize(500, testState(), testLimits())
	require.NoError(t, err)
	assert.Equal(t, 50.0, stake) // 5% of 1000
}

func TestAuthorizeNeverExceedsBalance(t *testing.T) {
	g := NewGate()
	state := testState()
	state.Balance = 30
	state.InitialBalance = 40
	limits := models.RiskLimits{} // no fractional caps configured

	stake, err := g.Authorize(100, state, limits)
	require.NoError(t, err)
	assert.Equal(t, 30.0, stake)
}

func TestAuthorizeCheckOrder(t *testing.T) {
	// daily loss fires before take-profit even when both would trigger
	g := NewGate()
	state := testState()
	state.DailyProfit = -100

	limits := testLimits()
	limits.StopLoss = 50

	_, err := g.Authorize(10, state, limits)
	denied := requireDenied(t, err)
	assert.Equal(t, ReasonDailyLoss, denied.Reason)
}
