package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/stats"
)

// Mirror is the fast read path for leaderboard standings, rebuilt from the
// durable store after every rerank
type Mirror interface {
	ReplaceBucket(ctx context.Context, period domain.PeriodType, start time.Time, entries []domain.LeaderboardEntry) error
	TopN(ctx context.Context, period domain.PeriodType, start time.Time, n int) ([]domain.LeaderboardEntry, error)
	Count(ctx context.Context, period domain.PeriodType, start time.Time) (int64, error)
}

// Broadcaster pushes standings updates to live subscribers
type Broadcaster interface {
	BroadcastLeaderboardUpdate(update domain.LeaderboardUpdate)
}

// LeaderboardService maintains per-period aggregate standings
type LeaderboardService struct {
	store  LeaderboardStore
	mirror Mirror
	hub    Broadcaster
	config *config.LeaderboardConfig
	loc    *time.Location
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard ranker
func NewLeaderboardService(
	store LeaderboardStore,
	mirror Mirror,
	cfg *config.LeaderboardConfig,
	loc *time.Location,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		mirror: mirror,
		config: cfg,
		loc:    loc,
		logger: logger,
	}
}

// SetHub sets the broadcaster for live standings updates
func (s *LeaderboardService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Record folds a session into the standings of every period it falls into:
// upsert the (user, period, bucket) entry, then rerank the whole bucket.
// Periods are processed independently; a failure in one is logged and does
// not prevent updating the others.
func (s *LeaderboardService) Record(ctx context.Context, sess *domain.PracticeSession) error {
	for _, period := range domain.Periods {
		if err := s.recordPeriod(ctx, period, sess); err != nil {
			s.logger.Error("failed to update leaderboard period",
				"period", period,
				"user_id", sess.UserID,
				"session_id", sess.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (s *LeaderboardService) recordPeriod(ctx context.Context, period domain.PeriodType, sess *domain.PracticeSession) error {
	start := stats.PeriodStart(period, sess.EndTime, s.loc)
	entry := &domain.LeaderboardEntry{
		UserID:      sess.UserID,
		PeriodType:  period,
		PeriodStart: start,
		PeriodEnd:   stats.PeriodEnd(period, start),
		WPM:         sess.WPM,
		Accuracy:    sess.Accuracy,
	}

	if err := s.store.UpsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("upserting entry: %w", err)
	}

	if err := s.store.RerankPeriod(ctx, period, start); err != nil {
		return fmt.Errorf("reranking: %w", err)
	}

	s.refreshBucket(ctx, period, start)
	return nil
}

// refreshBucket rebuilds the mirror for a bucket and broadcasts the new top
// standings. Both are best-effort: the durable store already holds the truth.
func (s *LeaderboardService) refreshBucket(ctx context.Context, period domain.PeriodType, start time.Time) {
	entries, err := s.store.ListEntries(ctx, period, start, s.config.MaxLimit, 0)
	if err != nil {
		s.logger.Warn("failed to read bucket for refresh", "period", period, "error", err)
		return
	}

	if s.mirror != nil {
		if err := s.mirror.ReplaceBucket(ctx, period, start, entries); err != nil {
			s.logger.Warn("failed to refresh leaderboard mirror", "period", period, "error", err)
		}
	}

	if s.hub != nil {
		// The listed entries cap out at MaxLimit; count separately so the
		// reported total covers the whole bucket.
		total := int64(len(entries))
		if count, err := s.store.CountEntries(ctx, period, start); err == nil {
			total = count
		} else {
			s.logger.Warn("failed to count bucket for update", "period", period, "error", err)
		}

		top := entries
		if len(top) > s.config.DefaultLimit {
			top = top[:s.config.DefaultLimit]
		}
		s.hub.BroadcastLeaderboardUpdate(domain.LeaderboardUpdate{
			PeriodType:  period,
			PeriodStart: start,
			Entries:     top,
			TotalUsers:  total,
		})
	}
}

// Get returns the current bucket's standings for a period, preferring the
// mirror and falling back to the durable store
func (s *LeaderboardService) Get(ctx context.Context, period domain.PeriodType, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	start := stats.PeriodStart(period, time.Now(), s.loc)

	if s.mirror != nil {
		entries, err := s.mirror.TopN(ctx, period, start, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.logger.Warn("leaderboard mirror read failed, falling back", "period", period, "error", err)
		}
	}

	entries, err := s.store.ListEntries(ctx, period, start, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("listing standings: %w", err)
	}
	return entries, nil
}

// Stats summarizes the current bucket of a period: total ranked users and
// the leading entry. The count prefers the mirror, falling back to the
// durable store.
func (s *LeaderboardService) Stats(ctx context.Context, period domain.PeriodType) (*domain.LeaderboardStats, error) {
	start := stats.PeriodStart(period, time.Now(), s.loc)
	out := &domain.LeaderboardStats{
		PeriodType:  period,
		PeriodStart: start,
	}

	counted := false
	if s.mirror != nil {
		count, err := s.mirror.Count(ctx, period, start)
		if err == nil {
			out.TotalUsers = count
			counted = true
		} else {
			s.logger.Warn("leaderboard mirror count failed, falling back", "period", period, "error", err)
		}
	}
	if !counted {
		count, err := s.store.CountEntries(ctx, period, start)
		if err != nil {
			return nil, fmt.Errorf("counting standings: %w", err)
		}
		out.TotalUsers = count
	}

	top, err := s.Get(ctx, period, 1)
	if err == nil && len(top) > 0 {
		out.TopWPM = top[0].WPM
		out.TopUsername = top[0].Username
	}
	return out, nil
}
