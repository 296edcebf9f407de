package scanjob

import (
	"context"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
)

// StaleFailer is the part of Service the sweeper drives.
type StaleFailer interface {
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Locker is a lease held while one sweep runs, so that only one of several
// workers sweeps per interval.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Sweeper periodically fails jobs stuck in PROCESSING after their worker
// went away.
type Sweeper struct {
	target   StaleFailer
	interval time.Duration
	deadline time.Duration
	lock     Locker
	logger   logging.Logger
}

// NewSweeper returns a sweeper that runs every interval and fails jobs that
// have been PROCESSING for longer than deadline.
func NewSweeper(target StaleFailer, interval, deadline time.Duration, logger logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if deadline <= 0 {
		deadline = 10 * time.Minute
	}
	return &Sweeper{target: target, interval: interval, deadline: deadline, logger: logger.Named("sweeper")}
}

// WithLock makes every sweep conditional on acquiring l.
func (s *Sweeper) WithLock(l Locker) *Sweeper {
	s.lock = l
	return s
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. It returns the number of jobs it failed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Warn("sweep lock unavailable", logging.Err(err))
			return 0
		}
		if !ok {
			return 0
		}
		defer func() {
			if err := s.lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release sweep lock", logging.Err(err))
			}
		}()
	}
	n, err := s.target.FailStale(ctx, s.deadline)
	if err != nil {
		s.logger.Error("stale job sweep failed", logging.Err(err))
		return 0
	}
	return n
}

//Personal.AI order the ending
