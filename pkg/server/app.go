package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"KryptoMarket/pkg/config"
	xhttp "KryptoMarket/pkg/http"
	applogger "KryptoMarket/pkg/logger"
)

// ViewStopper stops the live analysis views before the listener goes away.
type ViewStopper interface {
	StopAll()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	views      ViewStopper
	logger     *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, views ViewStopper, logger *applogger.Logger) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		httpServer: httpServer,
		views:      views,
		logger:     logger,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is cancelled and then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("kryptomarket started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.String("favorites", a.cfg.Favorites.Backend),
		applogger.String("sink", a.cfg.Sink.Type),
		applogger.Strings("dashboard", a.cfg.Dashboard.Symbols),
		applogger.Bool("metrics", a.cfg.Metrics.Enabled),
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services. Infrastructure clients are closed by
// the cleanup returned from dependency injection.
func (a *App) shutdown() error {
	if a.views != nil {
		a.views.StopAll()
	}

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := a.httpServer.Stop(ctx)
	if err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	a.logger.RemoveCollector()
	return err
}
