package session

import (
	"context"
	"log/slog"
	"time"

	"liftlog/cmd/internal/observability"
)

// Sweeper periodically deletes expired owners and sessions.
//
// Runs happen on a single goroutine, so at most one sweep is in flight. The
// ticker drops ticks that arrive while a sweep is running, which coalesces
// missed ticks instead of queueing them.
type Sweeper struct {
	store    Sweepable
	interval time.Duration
	log      *slog.Logger
}

// NewSweeper builds a Sweeper. A non-positive interval means DefaultSweepInterval.
func NewSweeper(store Sweepable, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, log: log}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.log.Info("session.sweep.start", "interval", s.interval.String())
	for {
		s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			s.log.Info("session.sweep.stop")
			return
		case <-t.C:
		}
	}
}

// SweepOnce runs a single sweep and records its outcome.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	if ctx.Err() != nil {
		return SweepResult{}, ctx.Err()
	}

	start := time.Now()
	res, err := s.store.SweepExpired(ctx)
	if err != nil {
		observability.SweepRunsTotal.WithLabelValues("error").Inc()
		s.log.Error("session.sweep.fail", "err", err)
		return SweepResult{}, err
	}

	observability.SweepRunsTotal.WithLabelValues("ok").Inc()
	observability.SweepDeletedTotal.WithLabelValues("owners").Add(float64(res.Owners))
	observability.SweepDeletedTotal.WithLabelValues("sessions").Add(float64(res.Sessions))
	s.log.Info("session.sweep.done",
		"owners", res.Owners,
		"sessions", res.Sessions,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
