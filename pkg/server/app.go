package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"PriceGate/internal/domain/models"
	domrepo "PriceGate/internal/domain/repository"
	"PriceGate/internal/scheduler"
	"PriceGate/internal/usecase"
	"PriceGate/pkg/config"
	xhttp "PriceGate/pkg/http"
	applogger "PriceGate/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	store      domrepo.AssetStore
	assets     *usecase.AssetService
	seed       []models.Asset
	closers    []namedCloser
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	store domrepo.AssetStore,
	assets *usecase.AssetService,
	seed []models.Asset,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		scheduler:  sched,
		store:      store,
		assets:     assets,
		seed:       seed,
	}
}

// AddCloser registers a resource released on shutdown, in registration order.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Start seeds reference data and starts the scheduler and HTTP server.
func (a *App) Start(ctx context.Context) error {
	if len(a.seed) > 0 {
		if err := a.assets.Seed(ctx, a.seed); err != nil {
			return fmt.Errorf("seed assets: %w", err)
		}
		a.log.Info("assets seeded", applogger.Int("count", len(a.seed)))
	}

	if a.cfg.Vendor.APIKey == "" {
		a.log.Warn("TWELVE_DATA_API_KEY is not set; price requests will fail until it is configured")
	}

	a.scheduler.Start()
	if a.cfg.Cron.RunOnStart {
		go func() {
			if n, err := a.scheduler.RunNow(); err == nil {
				a.log.Info("start-up price refresh done", applogger.Int("updated", n))
			}
		}()
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Shutdown gracefully stops all services.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.scheduler.Stop()

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("asset store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
