package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/service"
)

// Refresher pulls one collection's remote state into the local mirror. Each
// dual-written collection registers one at startup; a read with a healthy
// remote refreshes the mirror as a side effect, so a refresher is simply a
// full read.
type Refresher func(ctx context.Context)

// SyncWorker periodically re-reads every collection so mirrors converge with
// the remote store after an outage, then recomputes the derived seat
// availability snapshots from the refreshed bookings.
type SyncWorker struct {
	refreshers map[domain.Collection]Refresher
	bookings   *service.BookingService
	logger     *slog.Logger
	interval   time.Duration
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(bookings *service.BookingService, logger *slog.Logger, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		refreshers: make(map[domain.Collection]Refresher),
		bookings:   bookings,
		logger:     logger,
		interval:   interval,
	}
}

// Register adds one collection's refresher. Not safe to call after Start.
func (w *SyncWorker) Register(col domain.Collection, r Refresher) {
	w.refreshers[col] = r
}

// Start begins the sync loop. It runs one pass immediately so a process that
// started during a remote outage converges as soon as the remote returns.
func (w *SyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sync worker started",
		slog.Duration("interval", w.interval),
		slog.Int("collections", len(w.refreshers)),
	)

	w.syncAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker stopped")
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

func (w *SyncWorker) syncAll(ctx context.Context) {
	start := time.Now()
	for col, refresh := range w.refreshers {
		refresh(ctx)
		w.logger.Debug("collection refreshed", slog.String("collection", string(col)))
	}
	w.bookings.RefreshAllAvailability(ctx)
	w.logger.Info("sync pass complete", slog.Duration("elapsed", time.Since(start)))
}
