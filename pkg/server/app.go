package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/scheduler"
	"github.com/Prizeman-Enterprise/crypto-super-hub/pkg/config"
	xhttp "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/http"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

// ErrAllAssetsFailed is returned by RunOnce when no asset produced a score.
var ErrAllAssetsFailed = errors.New("every asset failed to score")

// Runner executes one batch recompute.
type Runner interface {
	RunAll(ctx context.Context) (*models.Report, error)
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	runner     Runner
	scheduler  *scheduler.Scheduler
	httpServer *xhttp.Server
}

// New creates an App. httpServer may be nil.
func New(cfg *config.Config, l *applogger.Logger, runner Runner, sched *scheduler.Scheduler, httpServer *xhttp.Server) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		runner:     runner,
		scheduler:  sched,
		httpServer: httpServer,
	}
}

// RunOnce scores every asset a single time and returns.
func (a *App) RunOnce(ctx context.Context) error {
	if a.cfg.Engine.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Engine.RunTimeout)
		defer cancel()
	}

	report, err := a.runner.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("risk run: %w", err)
	}
	if len(report.Assets) == 0 {
		return fmt.Errorf("%w: %v", ErrAllAssetsFailed, report.Errors)
	}
	return nil
}

// Run starts the scheduler and HTTP server and blocks until SIGINT/SIGTERM
// or a fatal server error.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Schedule.Enabled {
		a.scheduler.Start()
	}
	if a.cfg.Schedule.RunOnStart {
		a.scheduler.Trigger("startup")
	}

	var serverErr <-chan error
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			return err
		}
		serverErr = a.httpServer.Errors()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case runErr = <-serverErr:
	}
	a.shutdown()
	return runErr
}

// shutdown stops the HTTP server first, then waits for any active run.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}
	a.l.Info("shutdown complete")
}
