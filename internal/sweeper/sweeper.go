// Package sweeper periodically closes proposals that never had an expiry scheduled and have outlived
// the voting window.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
)

// Expirer expires stale proposals and reports how many rows were touched per kind.
type Expirer interface {
	ExpireStale(ctx context.Context, now time.Time, maxAge time.Duration) (map[models.ProposalKind]int64, error)
}

// Sweeper is the background expiry job.
type Sweeper struct {
	expirer  Expirer
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a sweeper that expires proposals older than maxAge every interval.
func New(expirer Expirer, maxAge, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{expirer: expirer, maxAge: maxAge, interval: interval, logger: logger, now: time.Now}
}

// Sweep runs one expiry pass at now. Running it again with no newly eligible rows changes nothing.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	counts, err := s.expirer.ExpireStale(ctx, now, s.maxAge)
	var total int64
	for _, n := range counts {
		total += n
	}
	if err != nil {
		return total, err
	}
	if total > 0 {
		s.logger.Info("expired stale proposals",
			zap.Int64("songs", counts[models.KindSong]),
			zap.Int64("stops", counts[models.KindStop]),
		)
	}
	return total, nil
}

// Run sweeps once immediately and then every interval until ctx is canceled. Failed passes are
// logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("proposal sweeper started", zap.Duration("interval", s.interval), zap.Duration("max_age", s.maxAge))
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("proposal sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, err := s.Sweep(ctx, s.now()); err != nil && ctx.Err() == nil {
		s.logger.Error("proposal sweep failed", zap.Error(err))
	}
}
