// Package scheduler drives the daily risk recompute from a cron expression
// and serializes manual triggers against it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Prizeman-Enterprise/crypto-super-hub/internal/domain/models"
	applogger "github.com/Prizeman-Enterprise/crypto-super-hub/pkg/logger"
)

// Job is one batch recompute.
type Job interface {
	RunAll(ctx context.Context) (*models.Report, error)
}

var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs Job on a cron schedule. At most one run is in flight.
type Scheduler struct {
	cron    *cron.Cron
	job     Job
	spec    string
	timeout time.Duration
	l       *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	busy   atomic.Bool
	wg     sync.WaitGroup
}

// New validates spec (six fields, seconds first) and registers the job.
// timeout bounds each run; zero means no limit.
func New(job Job, spec string, timeout time.Duration, l *applogger.Logger) (*Scheduler, error) {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		job:     job,
		spec:    spec,
		timeout: timeout,
		l:       l,
		ctx:     ctx,
		cancel:  cancel,
	}
	if _, err := s.cron.AddFunc(spec, func() {
		if !s.Trigger("cron") {
			s.l.Warn("scheduled run skipped, previous run still active")
		}
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("register risk job %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.String("cron", s.spec))
}

// Stop halts the cron, cancels any active run and waits for it to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Trigger starts a run in the background. It reports false when a run is
// already active.
func (s *Scheduler) Trigger(reason string) bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		s.run(reason)
	}()
	return true
}

// Running reports whether a run is in flight.
func (s *Scheduler) Running() bool {
	return s.busy.Load()
}

func (s *Scheduler) run(reason string) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.l.Info("risk run triggered", applogger.String("reason", reason))
	rep, err := s.job.RunAll(ctx)
	if err != nil {
		s.l.Error("risk run failed",
			applogger.String("reason", reason),
			applogger.Duration("duration_ms", time.Since(start)),
			applogger.Error(err),
		)
		return
	}
	s.l.Info("risk run done",
		applogger.String("reason", reason),
		applogger.Int("assets", len(rep.Assets)),
		applogger.Strings("errors", rep.Errors),
	)
}
