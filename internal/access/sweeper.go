package access

import (
	"context"
	"log/slog"
	"time"
)

const sweepBatchSize = 500

// Sweeper periodically deletes share tokens whose expiry has passed. It runs
// off the request path; expired tokens are already refused by the store's
// consume predicate, so sweeping is housekeeping only.
type Sweeper struct {
	tokens   TokenStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper constructs a sweeper with the provided cadence.
func NewSweeper(tokens TokenStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{tokens: tokens, interval: interval, logger: logger}
}

// Run blocks until the context is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	for {
		deleted, err := s.tokens.DeleteExpired(ctx, time.Now().UTC(), sweepBatchSize)
		if err != nil {
			s.logger.Error("sweep expired share tokens", "error", err)
			return
		}
		if deleted > 0 {
			s.logger.Info("swept expired share tokens", "count", deleted)
		}
		if deleted < sweepBatchSize {
			return
		}
	}
}
