package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/service"
)

const userColumns = `id, email, username, password_hash, role,
	keyboard_layout, theme, sound_enabled, show_heatmap,
	level, xp, current_streak, longest_streak,
	total_time, total_lessons, avg_wpm, avg_accuracy,
	created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.KeyboardLayout, &u.Theme, &u.SoundEnabled, &u.ShowHeatmap,
		&u.Level, &u.XP, &u.CurrentStreak, &u.LongestStreak,
		&u.TotalTime, &u.TotalLessons, &u.AvgWPM, &u.AvgAccuracy,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user record
func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, role,
			keyboard_layout, theme, sound_enabled, show_heatmap,
			level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.Username, u.PasswordHash, string(u.Role),
		u.KeyboardLayout, u.Theme, u.SoundEnabled, u.ShowHeatmap,
		u.Level, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// ApplySessionStats folds a persisted session into the user's aggregate
// fields. The user row is locked for the duration of the transaction so two
// concurrent submissions by the same user cannot lose each other's update.
// since bounds the prior-session lookup used for the streak computation.
func (r *Repository) ApplySessionStats(ctx context.Context, sess *domain.PracticeSession, since time.Time, fold service.StatsFold) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	u, err := scanUser(tx.QueryRow(ctx, query, sess.UserID))
	if err != nil {
		return nil, err
	}

	var sessionCount int64
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM practice_sessions WHERE user_id = $1`,
		sess.UserID,
	).Scan(&sessionCount)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	// Most recent prior session ending on or after the streak cutoff.
	// The just-persisted session is excluded so a same-day repeat cannot
	// masquerade as a continued streak.
	var prevEnd *time.Time
	var end time.Time
	err = tx.QueryRow(ctx, `
		SELECT end_time FROM practice_sessions
		WHERE user_id = $1 AND id <> $2 AND end_time >= $3
		ORDER BY end_time DESC
		LIMIT 1
	`, sess.UserID, sess.ID, since).Scan(&end)
	if err == nil {
		prevEnd = &end
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("finding previous session: %w", err)
	}

	updated := fold(u, sessionCount, prevEnd)

	_, err = tx.Exec(ctx, `
		UPDATE users SET
			avg_wpm = $2, avg_accuracy = $3,
			current_streak = $4, longest_streak = $5,
			total_time = $6, total_lessons = $7,
			xp = $8, level = $9, updated_at = $10
		WHERE id = $1
	`, u.ID,
		updated.AvgWPM, updated.AvgAccuracy,
		updated.CurrentStreak, updated.LongestStreak,
		updated.TotalTime, updated.TotalLessons,
		updated.XP, updated.Level, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("updating user stats: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing stats update: %w", err)
	}

	u.AvgWPM = updated.AvgWPM
	u.AvgAccuracy = updated.AvgAccuracy
	u.CurrentStreak = updated.CurrentStreak
	u.LongestStreak = updated.LongestStreak
	u.TotalTime = updated.TotalTime
	u.TotalLessons = updated.TotalLessons
	u.XP = updated.XP
	u.Level = updated.Level
	return u, nil
}

// AddXP atomically grants reward experience and rederives the level from the
// post-update xp in the same statement
func (r *Repository) AddXP(ctx context.Context, userID string, delta int64) error {
	query := `
		UPDATE users
		SET xp = xp + $2, level = (xp + $2) / 1000 + 1, updated_at = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, userID, delta, time.Now())
	if err != nil {
		return fmt.Errorf("adding xp: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
