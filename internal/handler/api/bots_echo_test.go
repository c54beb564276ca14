package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "digitpulse/internal/domain/models"
	internalrepo "digitpulse/internal/repository"
	"digitpulse/internal/service/cache"
	"digitpulse/internal/service/execution"
	"digitpulse/internal/service/ratelimit"
	"digitpulse/internal/service/tickstore"
	"digitpulse/internal/usecase"
	xhttp "digitpulse/pkg/http"
	"digitpulse/pkg/logger"
	"digitpulse/pkg/queue"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testServer(t *testing.T) (*echo.Echo, *tickstore.Store) {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	store := tickstore.NewStore(100)
	analyzer := tickstore.NewCachedAnalyzer(store, cache.NewTTLCache(), time.Millisecond)
	recorder := usecase.NewTradeRecorder(lgr, &queue.QueueConfig{Workers: 1, QueueSize: 16}, internalrepo.NoopTradeStore{})
	require.NoError(t, recorder.Start())
	t.Cleanup(func() { _ = recorder.Stop(context.Background()) })

	reg := usecase.NewRegistry(analyzer, execution.NewSimulator(0.95, 42), recorder,
		ratelimit.New(time.Hour), nopMetrics{}, lgr, time.Second, time.Second)

	e := echo.New()
	NewBotsEchoHandler(lgr, reg, store).RegisterRoutes(e)
	return e, store
}

type nopMetrics struct{}

func (nopMetrics) RecordTick(string, float64)            {}
func (nopMetrics) RecordDecision(string, string, string) {}
func (nopMetrics) RecordStake(string, float64)           {}
func (nopMetrics) RecordBalance(string, float64)         {}
func (nopMetrics) RecordRecoveryStep(string, int)        {}
func (nopMetrics) RecordError(string)                    {}
func (nopMetrics) RecordLatency(string, float64)         {}

func doJSON(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func createBot(t *testing.T, e *echo.Echo) models.BotRuntimeState {
	t.Helper()
	_, env := doJSON(t, e, http.MethodPost, "/api/bots", `{"symbol":"R_100"}`)
	require.Equal(t, http.StatusCreated, env.Status)

	var state models.BotRuntimeState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	return state
}

func TestHealth(t *testing.T) {
	e, _ := testServer(t)
	rec, env := doJSON(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestHealthDegraded(t *testing.T) {
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	h := NewBotsEchoHandler(lgr, nil, nil,
		WithHealthCheck("clickhouse", func(context.Context) error { return errors.New("connection refused") }))
	e := echo.New()
	h.RegisterRoutes(e)

	_, env := doJSON(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusInternalServerError, env.Status)
}

type fakeHistory struct {
	trades []internalrepo.TradeRecord
	botID  string
	limit  int
}

func (f *fakeHistory) RecentTrades(_ context.Context, botID string, limit int) ([]internalrepo.TradeRecord, error) {
	f.botID, f.limit = botID, limit
	return f.trades, nil
}

func TestTradesEndpoint(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)

	// rebuild routes with history enabled
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	hist := &fakeHistory{trades: []internalrepo.TradeRecord{{BotID: created.BotID, Result: "WIN", Profit: 9.5}}}

	store := tickstore.NewStore(100)
	analyzer := tickstore.NewCachedAnalyzer(store, cache.NewTTLCache(), time.Millisecond)
	recorder := usecase.NewTradeRecorder(lgr, &queue.QueueConfig{Workers: 1, QueueSize: 16}, internalrepo.NoopTradeStore{})
	require.NoError(t, recorder.Start())
	t.Cleanup(func() { _ = recorder.Stop(context.Background()) })
	reg := usecase.NewRegistry(analyzer, execution.NewSimulator(0.95, 42), recorder,
		ratelimit.New(time.Hour), nopMetrics{}, lgr, time.Second, time.Second)
	bot, err := reg.Create(models.BotCreateRequest{
		Name: "hist", Symbol: "R_100", WindowSize: 100, MinSamples: 10, MinConfidence: 60,
		SplitDigit: 5, HotColdMargin: 5, Family: "auto", TargetDigit: -1,
		BaseStake: 10, Multiplier: 2, MaxSteps: 5, MaxRepeats: 1, CeilingFactor: 50,
		InitialBalance: 1000, BalanceFloorFraction: 0.2, MaxTradeFraction: 0.1,
		MaxDailyLossFraction: 0.1, TakeProfit: 500, StopLoss: 200,
		MaxDecisionsPerHour: 60, IntervalSeconds: 3,
	})
	require.NoError(t, err)

	e2 := echo.New()
	NewBotsEchoHandler(lgr, reg, store, WithTradeHistory(hist)).RegisterRoutes(e2)

	_, env := doJSON(t, e2, http.MethodGet, "/api/bots/"+bot.Status().BotID+"/trades?limit=5", "")
	require.Equal(t, http.StatusOK, env.Status)

	var data xhttp.ListDataResponse
	data.Rows = &[]internalrepo.TradeRecord{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	rows := *(data.Rows.(*[]internalrepo.TradeRecord))
	require.Len(t, rows, 1)
	assert.Equal(t, "WIN", rows[0].Result)
	assert.Equal(t, 5, hist.limit)
}

func TestTradesEndpointDisabled(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)

	_, env := doJSON(t, e, http.MethodGet, "/api/bots/"+created.BotID+"/trades", "")
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestCreateBotAppliesDefaults(t *testing.T) {
	e, _ := testServer(t)
	state := createBot(t, e)

	assert.NotEmpty(t, state.BotID)
	assert.Equal(t, "R_100", state.Symbol)
	assert.Equal(t, models.StateStarting, state.State)
	assert.Equal(t, 1000.0, state.InitialBalance)
	assert.Equal(t, 10.0, state.Recovery.BaseStake)
	assert.Equal(t, 60, state.Limits.MaxDecisionsPerHour)
}

func TestCreateBotValidation(t *testing.T) {
	e, _ := testServer(t)

	// missing symbol
	_, env := doJSON(t, e, http.MethodPost, "/api/bots", `{}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)

	var verrs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &verrs))
	require.NotEmpty(t, verrs)
	assert.Equal(t, "ERR_REQUIRED", verrs[0].Code)

	// multiplier outside range
	_, env = doJSON(t, e, http.MethodPost, "/api/bots", `{"symbol":"R_100","multiplier":1}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestGetAndListBots(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)

	_, env := doJSON(t, e, http.MethodGet, "/api/bots/"+created.BotID, "")
	require.Equal(t, http.StatusOK, env.Status)
	var state models.BotRuntimeState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, created.BotID, state.BotID)

	_, env = doJSON(t, e, http.MethodGet, "/api/bots", "")
	require.Equal(t, http.StatusOK, env.Status)
	var list []models.BotRuntimeState
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestGetBotNotFound(t *testing.T) {
	e, _ := testServer(t)
	_, env := doJSON(t, e, http.MethodGet, "/api/bots/nope", "")
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestStartStopDeleteBot(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)
	id := created.BotID

	_, env := doJSON(t, e, http.MethodPost, "/api/bots/"+id+"/start", "")
	require.Equal(t, http.StatusOK, env.Status)
	var state models.BotRuntimeState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, models.StateActive, state.State)

	// starting twice is rejected
	_, env = doJSON(t, e, http.MethodPost, "/api/bots/"+id+"/start", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)

	_, env = doJSON(t, e, http.MethodPost, "/api/bots/"+id+"/stop", "")
	require.Equal(t, http.StatusOK, env.Status)
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, models.StateStopped, state.State)

	rec, _ := doJSON(t, e, http.MethodDelete, "/api/bots/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, env = doJSON(t, e, http.MethodGet, "/api/bots/"+id, "")
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestUpdateLimits(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)

	_, env := doJSON(t, e, http.MethodPatch, "/api/bots/"+created.BotID+"/limits",
		`{"take_profit":750,"max_decisions_per_hour":10}`)
	require.Equal(t, http.StatusOK, env.Status)

	var limits models.RiskLimits
	require.NoError(t, json.Unmarshal(env.Data, &limits))
	assert.Equal(t, 750.0, limits.TakeProfit)
	assert.Equal(t, 10, limits.MaxDecisionsPerHour)
	// untouched fields keep their defaults
	assert.Equal(t, 200.0, limits.StopLoss)
}

func TestUpdateLimitsValidation(t *testing.T) {
	e, _ := testServer(t)
	created := createBot(t, e)

	_, env := doJSON(t, e, http.MethodPatch, "/api/bots/"+created.BotID+"/limits",
		`{"max_trade_fraction":2}`)
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestTicksEndpoint(t *testing.T) {
	e, store := testServer(t)
	for i := 0; i < 30; i++ {
		store.Append(models.TickSample{Symbol: "R_100", Price: float64(100 + i), Epoch: int64(i + 1), LastDigit: i % 10})
	}

	_, env := doJSON(t, e, http.MethodGet, "/api/ticks/R_100?count=10", "")
	require.Equal(t, http.StatusOK, env.Status)

	var data xhttp.ListDataResponse
	data.Rows = &[]models.TickSample{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	rows := *(data.Rows.(*[]models.TickSample))
	assert.Len(t, rows, 10)
	// most recent last
	assert.Equal(t, 129.0, rows[9].Price)
	assert.Equal(t, int64(10), data.Total)
}

func TestTicksEndpointUnknownSymbol(t *testing.T) {
	e, _ := testServer(t)
	_, env := doJSON(t, e, http.MethodGet, "/api/ticks/R_50", "")
	require.Equal(t, http.StatusOK, env.Status)

	var data xhttp.ListDataResponse
	data.Rows = &[]models.TickSample{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(0), data.Total)
}

func TestTicksEndpointCountBounds(t *testing.T) {
	e, _ := testServer(t)
	_, env := doJSON(t, e, http.MethodGet, "/api/ticks/R_100?count=0", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)
}

func TestAnalysisEndpoint(t *testing.T) {
	e, store := testServer(t)
	for i := 0; i < 50; i++ {
		store.Append(models.TickSample{Symbol: "R_100", Price: 100, Epoch: int64(i + 1), LastDigit: (i % 5) * 2})
	}

	_, env := doJSON(t, e, http.MethodGet, "/api/analysis/R_100?count=50", "")
	require.Equal(t, http.StatusOK, env.Status)

	var stats models.DigitStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 50, stats.SampleSize)
	assert.InDelta(t, 100.0, stats.EvenPercentage, 0.01)
}

func TestAnalysisEndpointInsufficientData(t *testing.T) {
	e, store := testServer(t)
	store.Append(models.TickSample{Symbol: "R_100", Price: 100, Epoch: 1, LastDigit: 4})

	_, env := doJSON(t, e, http.MethodGet, "/api/analysis/R_100", "")
	assert.Equal(t, http.StatusBadRequest, env.Status)
}
