// Package sweeper reclaims expired void post rows in the background.
//
// The sweep is pure garbage collection: read paths already filter on
// expires_at, so visibility never depends on the sweeper having run. A missed
// cycle costs disk, not correctness.
package sweeper

import (
	"context"
	"time"

	"voidline/internal/observability"
	"voidline/internal/repository"
)

// Sweeper periodically deletes expired void posts.
type Sweeper struct {
	voidRepo repository.VoidPostRepository
	interval time.Duration
	now      func() time.Time
}

// New returns a Sweeper that runs every interval.
func New(voidRepo repository.VoidPostRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		voidRepo: voidRepo,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps on a fixed ticker until ctx is cancelled. One sweep happens
// immediately on startup so a restart doesn't leave a backlog waiting a full
// interval.
func (s *Sweeper) Run(ctx context.Context) {
	observability.Logger.Info("void sweeper started", "interval", s.interval.String())

	if _, err := s.SweepOnce(ctx); err != nil {
		observability.Logger.Error("void sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			observability.Logger.Info("void sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				observability.Logger.Error("void sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce deletes all rows whose window has closed, returning the count.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	swept, err := s.voidRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		observability.Logger.Info("void posts swept", "count", swept)
	}
	return swept, nil
}
