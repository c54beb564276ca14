package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "digitpulse/internal/domain/repository"
	"digitpulse/internal/usecase"
	pkgch "digitpulse/pkg/clickhouse"
	"digitpulse/pkg/config"
	xhttp "digitpulse/pkg/http"
	applogger "digitpulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.TickCollector
	recorder   *usecase.TradeRecorder
	registry   *usecase.Registry
	handler    xhttp.Handler
	httpServer *xhttp.Server

	chClient   *pkgch.Client
	tradeStore drepo.TradeStore
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	recorder *usecase.TradeRecorder,
	registry *usecase.Registry,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	tradeStore drepo.TradeStore,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		collector:  collector,
		recorder:   recorder,
		registry:   registry,
		handler:    handler,
		chClient:   chClient,
		tradeStore: tradeStore,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.recorder.Start(); err != nil {
		return err
	}

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		}
	}()
	a.log.Info("tick collector started", applogger.Strings("symbols", a.cfg.Deriv.Symbols))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop decision loops first so nothing submits while infra goes away.
	a.registry.StopAll(shutdownCtx)

	if err := a.collector.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	// Drain queued trade records before closing the store underneath them.
	if err := a.recorder.Stop(shutdownCtx); err != nil {
		a.log.Warn("trade recorder stop error", applogger.Error(err))
	}

	if a.tradeStore != nil {
		if err := a.tradeStore.Close(); err != nil {
			a.log.Warn("trade store close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
