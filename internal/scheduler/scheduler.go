package scheduler

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-interview/backend/internal/logger"
)

// Sweeper is implemented by registries that can drop idle sessions.
type Sweeper interface {
	SweepIdle(ttl time.Duration) int
}

// Scheduler periodically evicts idle sessions.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	ttl     time.Duration
	spec    string
	logger  *zap.Logger
}

// New creates a scheduler. spec is a robfig/cron expression such as "@every 5m".
func New(sweeper Sweeper, spec string, ttl time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		ttl:     ttl,
		spec:    spec,
		logger:  logger.OrNop(log),
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.sweeper == nil {
		return errors.New("scheduler: sweeper is required")
	}

	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("session sweeper started", zap.String("schedule", s.spec), zap.Duration("ttl", s.ttl))
	return nil
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce() {
	removed := s.sweeper.SweepIdle(s.ttl)
	s.logger.Debug("session sweep finished", zap.Int("removed", removed))
}

// Stop waits for a running sweep to finish and stops the loop.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.logger.Info("session sweeper stopped")
}
