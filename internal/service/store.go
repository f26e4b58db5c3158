package service

import (
	"context"
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

// StatsFold recomputes a user's aggregate fields with one more session
// included. sessionCount is the user's total session count after this
// session; prevEnd is the end time of the most recent qualifying prior
// session, or nil when none exists.
type StatsFold func(u *domain.User, sessionCount int64, prevEnd *time.Time) domain.UserStats

// UserStore provides user persistence
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ApplySessionStats runs fold against the current user row and writes the
	// result back as one atomic read-modify-write.
	ApplySessionStats(ctx context.Context, sess *domain.PracticeSession, since time.Time, fold StatsFold) (*domain.User, error)

	// AddXP grants reward experience and rederives the level atomically.
	AddXP(ctx context.Context, userID string, delta int64) error
}

// SessionStore provides practice session persistence
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.PracticeSession) error
	ListUserSessions(ctx context.Context, userID string, limit int) ([]domain.PracticeSession, error)
}

// AchievementStore provides achievement catalog and unlock persistence
type AchievementStore interface {
	ListAchievements(ctx context.Context) ([]domain.Achievement, error)
	ListLockedAchievements(ctx context.Context, userID string) ([]domain.Achievement, error)

	// UnlockAchievement is an idempotent insert-if-absent; it reports whether
	// this call created the unlock record.
	UnlockAchievement(ctx context.Context, userID, achievementID string, at time.Time) (bool, error)
	ListUserAchievements(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error)
}

// LeaderboardStore provides period bucket persistence
type LeaderboardStore interface {
	UpsertEntry(ctx context.Context, e *domain.LeaderboardEntry) error
	RerankPeriod(ctx context.Context, period domain.PeriodType, start time.Time) error
	ListEntries(ctx context.Context, period domain.PeriodType, start time.Time, limit, offset int) ([]domain.LeaderboardEntry, error)
	CountEntries(ctx context.Context, period domain.PeriodType, start time.Time) (int64, error)
}

// LessonStore provides lesson reads
type LessonStore interface {
	ListLessons(ctx context.Context) ([]domain.Lesson, error)
	GetLesson(ctx context.Context, id string) (*domain.Lesson, error)
}

// Store combines every persistence capability the pipeline consumes
type Store interface {
	UserStore
	SessionStore
	AchievementStore
	LeaderboardStore
	LessonStore
}
