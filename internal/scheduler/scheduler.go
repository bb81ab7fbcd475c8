// Package scheduler runs the periodic price refresh in-process.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "PriceGate/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher is the job the scheduler drives.
type Refresher interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler triggers the price refresh on a cron spec with seconds.
type Scheduler struct {
	cron    *cron.Cron
	job     Refresher
	timeout time.Duration
	log     *applogger.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped bool
	runs    sync.WaitGroup
}

// New creates a Scheduler; each run gets at most timeout.
func New(job Refresher, timeout time.Duration, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		job:     job,
		timeout: timeout,
		log:     l,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds the refresh job under spec. An empty spec disables it.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		s.log.Info("scheduled price refresh disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register price refresh %q: %w", spec, err)
	}
	s.log.Info("scheduled price refresh", applogger.String("spec", spec))
	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop stops the cron loop, cancels a run in progress and waits for it,
// whether cron or a direct RunNow call started it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.runs.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes one refresh immediately. Overlapping runs are skipped and
// calls after Stop return context.Canceled.
func (s *Scheduler) RunNow() (int, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, context.Canceled
	}
	if s.running {
		s.mu.Unlock()
		s.log.Warn("price refresh still running, skipping")
		return 0, nil
	}
	s.running = true
	s.runs.Add(1)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.runs.Done()
	}()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	n, err := s.job.Run(ctx)
	if err != nil {
		s.log.Error("scheduled price refresh failed", applogger.Error(err))
		return n, err
	}
	return n, nil
}
