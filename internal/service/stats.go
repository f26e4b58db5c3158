package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/stats"
)

// StatsService recomputes a user's aggregate stats after each session
type StatsService struct {
	store  UserStore
	loc    *time.Location
	logger *slog.Logger
}

// NewStatsService creates a new user statistics updater. loc is the fixed
// reference timezone for day-boundary computations.
func NewStatsService(store UserStore, loc *time.Location, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:  store,
		loc:    loc,
		logger: logger,
	}
}

// Apply folds a just-persisted session into the owning user's running
// averages, streak, totals, and experience. Returns the post-update user.
// A vanished user is a logged no-op: the session record is already durable.
func (s *StatsService) Apply(ctx context.Context, sess *domain.PracticeSession) (*domain.User, error) {
	// Prior sessions ending before yesterday's start cannot affect the
	// streak, so the lookup is bounded there.
	since := stats.DayStart(sess.EndTime, s.loc).AddDate(0, 0, -1)

	updated, err := s.store.ApplySessionStats(ctx, sess, since,
		func(u *domain.User, sessionCount int64, prevEnd *time.Time) domain.UserStats {
			return stats.Fold(u, sess, sessionCount, prevEnd, s.loc)
		})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("user vanished before stats update, skipping",
				"user_id", sess.UserID,
				"session_id", sess.ID,
			)
			return nil, nil
		}
		return nil, fmt.Errorf("applying session stats: %w", err)
	}

	return updated, nil
}
