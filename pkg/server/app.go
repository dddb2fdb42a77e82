package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockLens/internal/service/ratelimit"
	"StockLens/internal/usecase"
	"StockLens/pkg/config"
	xhttp "StockLens/pkg/http"
	applogger "StockLens/pkg/logger"
)

const limiterSweepEvery = time.Minute

// App encapsulates the HTTP service lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	watcher    *usecase.Watcher
	limiter    *ratelimit.Limiter
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	watcher *usecase.Watcher,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		watcher:    watcher,
		limiter:    limiter,
	}
}

// Run starts the HTTP server and, when enabled, the volatility watcher. It
// blocks until ctx is cancelled, a termination signal arrives or the server
// fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if a.cfg.Alerts.Enabled {
		if err := a.watcher.Start(ctx); err != nil {
			return err
		}
	}
	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	errCh := a.httpServer.Start()
	a.l.Info("stocklens started",
		applogger.String("addr", a.httpServer.Addr()),
		applogger.String("source", a.cfg.Source.Type),
		applogger.Bool("alerts", a.cfg.Alerts.Enabled),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.l.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}
	a.shutdown()
	return runErr
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.l.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	a.l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.cfg.Alerts.Enabled {
		a.watcher.Stop(ctx)
	}

	a.l.Info("shutdown complete")
}
