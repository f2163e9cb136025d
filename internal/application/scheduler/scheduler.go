package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskmaster/todo-reminder/internal/domain/entities"
	"github.com/taskmaster/todo-reminder/internal/infrastructure/logger"
	"github.com/taskmaster/todo-reminder/internal/ports"
)

// Sweeper runs one reminder sweep
type Sweeper interface {
	Sweep(ctx context.Context) (*ports.SweepResult, error)
}

// Scheduler triggers a sweep at startup and then on every tick
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *logger.Logger

	wg sync.WaitGroup
}

// New creates a scheduler
func New(sweeper Sweeper, interval time.Duration, appLogger *logger.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   appLogger.WithComponent("scheduler"),
	}
}

// Run blocks until ctx is cancelled, then waits for an in-flight sweep to
// finish before returning. A sweep is not interrupted by shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infow("Reminder scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.trigger(ctx)
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("Reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

// trigger starts a sweep in the background. Ticks that land while a sweep is
// still running are dropped by the sweeper itself.
func (s *Scheduler) trigger(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_, err := s.sweeper.Sweep(context.WithoutCancel(ctx))
		switch {
		case err == nil:
		case errors.Is(err, entities.ErrSweepInProgress):
			s.logger.Debug("Previous reminder sweep still running, tick skipped")
		default:
			s.logger.WithError(err).Error("Reminder sweep failed")
		}
	}()
}
