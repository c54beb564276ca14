package api

import (
	"context"
	"errors"
	"time"

	models "digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	internalrepo "digitpulse/internal/repository"
	"digitpulse/internal/services/analysis"
	"digitpulse/internal/usecase"
	xhttp "digitpulse/pkg/http"
	xlogger "digitpulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TradeHistory reads back settled trades. Only available when the history
// backend supports queries.
type TradeHistory interface {
	RecentTrades(ctx context.Context, botID string, limit int) ([]internalrepo.TradeRecord, error)
}

// BotsEchoHandler exposes the bot control surface plus read-only tick and
// analysis endpoints over Echo.
type BotsEchoHandler struct {
	logger   *xlogger.Logger
	registry *usecase.Registry
	ticks    drepo.TickSource
	analysis analysis.Config
	history  TradeHistory
	checks   map[string]func(context.Context) error
}

// Option configures optional handler capabilities.
type Option func(*BotsEchoHandler)

// WithHealthCheck adds a named dependency probe to the health endpoint.
func WithHealthCheck(name string, fn func(context.Context) error) Option {
	return func(h *BotsEchoHandler) {
		h.checks[name] = fn
	}
}

// WithTradeHistory enables the settled-trades query endpoint.
func WithTradeHistory(th TradeHistory) Option {
	return func(h *BotsEchoHandler) {
		h.history = th
	}
}

func NewBotsEchoHandler(logger *xlogger.Logger, registry *usecase.Registry, ticks drepo.TickSource, opts ...Option) *BotsEchoHandler {
	h := &BotsEchoHandler{
		logger:   logger,
		registry: registry,
		ticks:    ticks,
		analysis: analysis.DefaultConfig(),
		checks:   make(map[string]func(context.Context) error),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BotsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/bots", h.CreateBot)
	g.GET("/bots", h.ListBots)
	g.GET("/bots/:id", h.GetBot)
	g.POST("/bots/:id/start", h.StartBot)
	g.POST("/bots/:id/stop", h.StopBot)
	g.PATCH("/bots/:id/limits", h.UpdateLimits)
	g.DELETE("/bots/:id", h.DeleteBot)

	g.GET("/bots/:id/trades", h.Trades)

	g.GET("/ticks/:symbol", h.Ticks)
	g.GET("/analysis/:symbol", h.Analysis)
}

func (h *BotsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("component", name), xlogger.Error(err))
			status["status"] = "degraded"
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}
	if status["status"] != "ok" {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("dependency unavailable"))
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *BotsEchoHandler) Trades(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("trade history is not enabled"))
	}

	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bot, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return h.botError(c, err)
	}

	trades, err := h.history.RecentTrades(c.Request().Context(), bot.Status().BotID, req.Limit)
	if err != nil {
		h.logger.Error("trade history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("trade history query failed"))
	}
	return xhttp.ListResponse(c, trades, int64(len(trades)))
}

func (h *BotsEchoHandler) CreateBot(c echo.Context) error {
	req := &models.BotCreateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bot, err := h.registry.Create(*req)
	if err != nil {
		h.logger.Error("create bot failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.CreatedResponse(c, bot.Status())
}

func (h *BotsEchoHandler) ListBots(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.registry.List())
}

func (h *BotsEchoHandler) GetBot(c echo.Context) error {
	bot, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return h.botError(c, err)
	}
	return xhttp.SuccessResponse(c, bot.Status())
}

func (h *BotsEchoHandler) StartBot(c echo.Context) error {
	id := c.Param("id")
	if err := h.registry.Start(c.Request().Context(), id); err != nil {
		return h.botError(c, err)
	}
	bot, err := h.registry.Get(id)
	if err != nil {
		return h.botError(c, err)
	}
	return xhttp.SuccessResponse(c, bot.Status())
}

func (h *BotsEchoHandler) StopBot(c echo.Context) error {
	id := c.Param("id")
	if err := h.registry.Stop(c.Request().Context(), id); err != nil {
		return h.botError(c, err)
	}
	bot, err := h.registry.Get(id)
	if err != nil {
		return h.botError(c, err)
	}
	return xhttp.SuccessResponse(c, bot.Status())
}

func (h *BotsEchoHandler) UpdateLimits(c echo.Context) error {
	req := &models.RiskLimitsUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	bot, err := h.registry.Get(c.Param("id"))
	if err != nil {
		return h.botError(c, err)
	}
	return xhttp.SuccessResponse(c, bot.UpdateLimits(*req))
}

func (h *BotsEchoHandler) DeleteBot(c echo.Context) error {
	if err := h.registry.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.botError(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *BotsEchoHandler) Ticks(c echo.Context) error {
	req := &models.TicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ticks, err := h.ticks.GetRecentTicks(c.Request().Context(), c.Param("symbol"), req.Count)
	if err != nil {
		h.logger.Error("tick query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("tick query failed"))
	}
	if ticks == nil {
		ticks = []models.TickSample{}
	}
	return xhttp.ListResponse(c, ticks, int64(len(ticks)))
}

func (h *BotsEchoHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbol := c.Param("symbol")
	window, err := h.ticks.GetRecentTicks(c.Request().Context(), symbol, req.Count)
	if err != nil {
		h.logger.Error("tick query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("tick query failed"))
	}

	cfg := h.analysis
	cfg.WindowSize = req.Count
	stats, err := analysis.Compute(symbol, window, cfg)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf(
				"not enough ticks for %s: have %d", symbol, len(window)))
		}
		h.logger.Error("analysis failed", xlogger.Error(err), xlogger.String("symbol", symbol))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed"))
	}
	return xhttp.SuccessResponse(c, stats)
}

func (h *BotsEchoHandler) botError(c echo.Context, err error) error {
	if errors.Is(err, usecase.ErrBotNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("bot not found"))
	}
	return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
}
