package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

// criteriaFunc reports whether a user/session pair satisfies an achievement
// threshold. Criteria against cumulative fields read the post-update user;
// ACCURACY and PERFECT_LESSON are session-local.
type criteriaFunc func(u *domain.User, sess *domain.PracticeSession, threshold float64) bool

// criteriaTable dispatches evaluation by criteria type. Adding a criteria
// type is a single new entry here.
var criteriaTable = map[domain.CriteriaType]criteriaFunc{
	domain.CriteriaTotalLessons: func(u *domain.User, _ *domain.PracticeSession, threshold float64) bool {
		return float64(u.TotalLessons) >= threshold
	},
	domain.CriteriaTotalWPM: func(u *domain.User, _ *domain.PracticeSession, threshold float64) bool {
		return u.AvgWPM >= threshold
	},
	domain.CriteriaAccuracy: func(_ *domain.User, sess *domain.PracticeSession, threshold float64) bool {
		return sess.Accuracy >= threshold
	},
	domain.CriteriaStreakDays: func(u *domain.User, _ *domain.PracticeSession, threshold float64) bool {
		return float64(u.CurrentStreak) >= threshold
	},
	domain.CriteriaTotalTime: func(u *domain.User, _ *domain.PracticeSession, threshold float64) bool {
		return float64(u.TotalTime) >= threshold
	},
	domain.CriteriaPerfectLesson: func(_ *domain.User, sess *domain.PracticeSession, _ float64) bool {
		return sess.Accuracy == 100
	},
	domain.CriteriaLevel: func(u *domain.User, _ *domain.PracticeSession, threshold float64) bool {
		return float64(u.Level) >= threshold
	},
}

// AchievementService evaluates and unlocks achievements after each session
type AchievementService struct {
	store  AchievementStore
	users  UserStore
	logger *slog.Logger
}

// NewAchievementService creates a new achievement evaluator
func NewAchievementService(store AchievementStore, users UserStore, logger *slog.Logger) *AchievementService {
	return &AchievementService{
		store:  store,
		users:  users,
		logger: logger,
	}
}

// Evaluate checks every not-yet-unlocked achievement against the post-update
// user and the session just processed, unlocking the ones that now qualify.
// Each achievement is evaluated independently; a failure on one is logged and
// never blocks the others. Returns the achievements unlocked by this call.
func (s *AchievementService) Evaluate(ctx context.Context, u *domain.User, sess *domain.PracticeSession) ([]domain.Achievement, error) {
	candidates, err := s.store.ListLockedAchievements(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("listing candidate achievements: %w", err)
	}

	var unlocked []domain.Achievement
	now := time.Now()

	for _, a := range candidates {
		check, ok := criteriaTable[a.CriteriaType]
		if !ok {
			s.logger.Warn("unknown achievement criteria type",
				"achievement", a.Name,
				"criteria_type", a.CriteriaType,
			)
			continue
		}

		if !check(u, sess, a.CriteriaValue) {
			continue
		}

		inserted, err := s.store.UnlockAchievement(ctx, u.ID, a.ID, now)
		if err != nil {
			s.logger.Error("failed to unlock achievement",
				"achievement", a.Name,
				"user_id", u.ID,
				"error", err,
			)
			continue
		}
		if !inserted {
			// Unlocked concurrently by another submission; the reward was
			// granted there.
			continue
		}

		if a.XPReward > 0 {
			if err := s.users.AddXP(ctx, u.ID, a.XPReward); err != nil {
				s.logger.Error("failed to grant achievement xp",
					"achievement", a.Name,
					"user_id", u.ID,
					"error", err,
				)
			}
		}

		unlocked = append(unlocked, a)
	}

	return unlocked, nil
}

// List returns the full achievement catalog
func (s *AchievementService) List(ctx context.Context) ([]domain.Achievement, error) {
	return s.store.ListAchievements(ctx)
}

// ListForUser returns a user's unlocked achievements
func (s *AchievementService) ListForUser(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error) {
	return s.store.ListUserAchievements(ctx, userID)
}
