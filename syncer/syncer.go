// Package syncer keeps the stored directory of aggregated transactions
// fresh: every cycle it re-aggregates both tracks from the source-of-truth
// event indexes and replaces the stored records. Nothing is patched between
// cycles; a record the chain no longer agrees with simply gets rebuilt.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arbitrable-escrow/escrow-api/database"
	"github.com/arbitrable-escrow/escrow-api/database/models"
	"github.com/arbitrable-escrow/escrow-api/escrow"
)

type Syncer struct {
	aggregators []*escrow.Aggregator
	database    *database.Database
	interval    time.Duration
	logger      *slog.Logger
}

type SyncerOpts struct {
	Aggregators []*escrow.Aggregator
	Database    *database.Database
	Interval    time.Duration
	Logger      *slog.Logger
}

const defaultInterval = 5 * time.Minute

func NewSyncer(opts SyncerOpts) *Syncer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval == 0 {
		opts.Interval = defaultInterval
	}
	return &Syncer{
		aggregators: opts.Aggregators,
		database:    opts.Database,
		interval:    opts.Interval,
		logger:      opts.Logger,
	}
}

// Run loops until the context is canceled. A failed cycle is logged and
// retried on the next tick; aggregation has no side effects so abandoning a
// cycle mid-way is always safe.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down syncer")
			return nil
		default:
			if err := s.cycle(ctx); err != nil {
				s.logger.Error("sync cycle failed", "error", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(s.interval):
			}
		}
	}
}

func (s *Syncer) cycle(ctx context.Context) error {
	start := time.Now()

	for _, agg := range s.aggregators {
		track := agg.Track()
		txs, err := agg.List(ctx, func(p escrow.Progress) {
			s.logger.Info("aggregating transactions",
				"track", track,
				"done", p.Done,
				"failed", p.Failed,
				"total", p.Total)
		})
		if err != nil {
			return fmt.Errorf("failed to aggregate %s track: %w", track, err)
		}

		docs := make([]models.Transaction, len(txs))
		for i, tx := range txs {
			docs[i] = models.FromEscrow(tx)
		}
		if err := s.database.UpsertTransactions(ctx, docs); err != nil {
			return fmt.Errorf("failed to store %s track: %w", track, err)
		}

		s.logger.Info("track synced", "track", track, "transactions", len(docs))
	}

	s.logger.Info("sync cycle complete", "elapsed", time.Since(start))
	return nil
}
