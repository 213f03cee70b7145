// Package worker holds the background loops started from main.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maruf7705/80MCQ/internal/store"
)

// PendingReaper periodically prunes pending-student records whose heartbeat
// went quiet, covering students whose browser died before the removal call.
type PendingReaper struct {
	pending  *store.Pending
	interval time.Duration
	log      zerolog.Logger
}

// NewPendingReaper creates a PendingReaper running every interval.
func NewPendingReaper(pending *store.Pending, interval time.Duration, log zerolog.Logger) *PendingReaper {
	return &PendingReaper{
		pending:  pending,
		interval: interval,
		log:      log.With().Str("component", "pending_reaper").Logger(),
	}
}

// Start begins the reaper loop. Call in a goroutine.
func (w *PendingReaper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			dropped, err := w.pending.Prune(ctx)
			if err != nil {
				w.log.Warn().Err(err).Msg("prune failed")
				continue
			}
			if dropped > 0 {
				w.log.Info().Int("dropped", dropped).Msg("pruned stale pending students")
			}
		}
	}
}
