package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/stats"
)

// Store reads durable leaderboard standings
type Store interface {
	ListEntries(ctx context.Context, period domain.PeriodType, start time.Time, limit, offset int) ([]domain.LeaderboardEntry, error)
}

// Mirror receives rebuilt leaderboard buckets
type Mirror interface {
	ReplaceBucket(ctx context.Context, period domain.PeriodType, start time.Time, entries []domain.LeaderboardEntry) error
}

// SyncWorker periodically rebuilds the Redis leaderboard mirror from
// PostgreSQL. PostgreSQL is the source of truth; the mirror only serves
// reads, so a rebuild always overwrites the mirrored buckets.
type SyncWorker struct {
	store   Store
	mirror  Mirror
	config  *config.SyncConfig
	loc     *time.Location
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	store Store,
	mirror Mirror,
	cfg *config.SyncConfig,
	loc *time.Location,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		store:   store,
		mirror:  mirror,
		config:  cfg,
		loc:     loc,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll rebuilds the mirror for the current bucket of every period
func (w *SyncWorker) syncAll(ctx context.Context) {
	w.logger.Info("starting sync cycle")
	startTime := time.Now()

	syncedCount := 0
	errorCount := 0

	for _, period := range domain.Periods {
		if err := w.syncPeriod(ctx, period, startTime); err != nil {
			w.logger.Error("failed to sync leaderboard bucket",
				"period", period,
				"error", err,
			)
			errorCount++
		} else {
			syncedCount++
		}
	}

	duration := time.Since(startTime)
	w.logger.Info("sync cycle completed",
		"duration", duration,
		"synced", syncedCount,
		"errors", errorCount,
	)
}

// syncPeriod rebuilds the mirror bucket covering now for a single period,
// reading the full standings in pages of config.BatchSize
func (w *SyncWorker) syncPeriod(ctx context.Context, period domain.PeriodType, now time.Time) error {
	start := stats.PeriodStart(period, now, w.loc)

	var entries []domain.LeaderboardEntry
	for offset := 0; ; offset += w.config.BatchSize {
		page, err := w.store.ListEntries(ctx, period, start, w.config.BatchSize, offset)
		if err != nil {
			return err
		}
		entries = append(entries, page...)
		if len(page) < w.config.BatchSize {
			break
		}
	}

	if err := w.mirror.ReplaceBucket(ctx, period, start, entries); err != nil {
		return err
	}

	w.logger.Debug("synced leaderboard bucket",
		"period", period,
		"period_start", start,
		"entry_count", len(entries),
	)

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle. Used at startup to warm the mirror
// before the server accepts traffic.
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}
