package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/metrics"
)

// SessionService is the session ingestion entry point. It persists the raw
// session record and then drives the derived-state updates in order: user
// stats, achievements, leaderboards.
type SessionService struct {
	store        Store
	stats        *StatsService
	achievements *AchievementService
	leaderboard  *LeaderboardService
	logger       *slog.Logger
}

// NewSessionService creates a new session ingestion orchestrator
func NewSessionService(
	store Store,
	stats *StatsService,
	achievements *AchievementService,
	leaderboard *LeaderboardService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:        store,
		stats:        stats,
		achievements: achievements,
		leaderboard:  leaderboard,
		logger:       logger,
	}
}

// Submit validates and persists a completed session, then updates every
// piece of derived state. Persistence failure is fatal to the request; any
// failure after that is logged and the caller still receives the stored
// session, with derived aggregates catching up on a later submission.
func (s *SessionService) Submit(ctx context.Context, sub domain.SessionSubmission) (*domain.PracticeSession, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	// Batch clients may report raw keystroke counts without the derived
	// figures; fill them in with the same formulas the web client uses.
	wpm, accuracy := sub.WPM, sub.Accuracy
	if wpm == 0 && sub.TotalKeys > 0 {
		wpm = metrics.WPM(sub.TotalKeys-sub.Errors, float64(sub.Duration)/60.0)
		accuracy = metrics.Accuracy(sub.TotalKeys, sub.Errors)
	}

	now := time.Now()
	sess := &domain.PracticeSession{
		ID:         uuid.NewString(),
		UserID:     sub.UserID,
		Type:       sub.Type,
		LessonID:   sub.LessonID,
		Duration:   sub.Duration,
		WPM:        wpm,
		Accuracy:   accuracy,
		Errors:     sub.Errors,
		TotalKeys:  sub.TotalKeys,
		KeyPresses: sub.KeyPresses,
		StartTime:  now.Add(-time.Duration(sub.Duration) * time.Second),
		EndTime:    now,
	}

	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	user, err := s.stats.Apply(ctx, sess)
	if err != nil {
		s.logger.Error("failed to update user stats",
			"user_id", sess.UserID,
			"session_id", sess.ID,
			"error", err,
		)
	}

	// Achievement criteria read the post-update user; skip evaluation when
	// the stats step could not produce one.
	if user != nil {
		if _, err := s.achievements.Evaluate(ctx, user, sess); err != nil {
			s.logger.Error("failed to evaluate achievements",
				"user_id", sess.UserID,
				"session_id", sess.ID,
				"error", err,
			)
		}
	}

	if err := s.leaderboard.Record(ctx, sess); err != nil {
		s.logger.Error("failed to update leaderboards",
			"user_id", sess.UserID,
			"session_id", sess.ID,
			"error", err,
		)
	}

	return sess, nil
}

// History returns a user's most recent sessions
func (s *SessionService) History(ctx context.Context, userID string, limit int) ([]domain.PracticeSession, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return s.store.ListUserSessions(ctx, userID, limit)
}
