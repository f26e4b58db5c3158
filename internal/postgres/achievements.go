package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/typingmaster/backend/internal/domain"
)

// seedAchievements is the static achievement catalog. Seeding is idempotent,
// keyed by the unique achievement name.
var seedAchievements = []domain.Achievement{
	{Name: "First Steps", Description: "Complete your first typing lesson", Icon: "👣", CriteriaType: domain.CriteriaTotalLessons, CriteriaValue: 1, XPReward: 100, Rarity: domain.RarityCommon},
	{Name: "Speed Demon", Description: "Reach a 60 WPM average", Icon: "⚡", CriteriaType: domain.CriteriaTotalWPM, CriteriaValue: 60, XPReward: 500, Rarity: domain.RarityRare},
	{Name: "Accuracy Master", Description: "Achieve 99% accuracy in a session", Icon: "🎯", CriteriaType: domain.CriteriaAccuracy, CriteriaValue: 99, XPReward: 300, Rarity: domain.RarityRare},
	{Name: "7-Day Streak", Description: "Practice typing for 7 consecutive days", Icon: "🔥", CriteriaType: domain.CriteriaStreakDays, CriteriaValue: 7, XPReward: 1000, Rarity: domain.RarityEpic},
	{Name: "Marathon Typer", Description: "Spend 1 hour total in typing practice", Icon: "🏃", CriteriaType: domain.CriteriaTotalTime, CriteriaValue: 3600, XPReward: 750, Rarity: domain.RarityRare},
	{Name: "Lesson Master", Description: "Complete 10 lessons", Icon: "📚", CriteriaType: domain.CriteriaTotalLessons, CriteriaValue: 10, XPReward: 400, Rarity: domain.RarityCommon},
	{Name: "Perfect Lesson", Description: "Complete a session with 100% accuracy", Icon: "💯", CriteriaType: domain.CriteriaPerfectLesson, CriteriaValue: 100, XPReward: 600, Rarity: domain.RarityEpic},
	{Name: "Level 5 Achiever", Description: "Reach level 5", Icon: "⭐", CriteriaType: domain.CriteriaLevel, CriteriaValue: 5, XPReward: 800, Rarity: domain.RarityLegendary},
}

// SeedAchievements inserts the achievement catalog, skipping existing rows
func (r *Repository) SeedAchievements(ctx context.Context) error {
	query := `
		INSERT INTO achievements (id, name, description, icon, criteria_type, criteria_value, xp_reward, rarity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING
	`
	for _, a := range seedAchievements {
		_, err := r.pool.Exec(ctx, query,
			uuid.NewString(), a.Name, a.Description, a.Icon,
			string(a.CriteriaType), a.CriteriaValue, a.XPReward, string(a.Rarity),
		)
		if err != nil {
			return fmt.Errorf("seeding achievement %q: %w", a.Name, err)
		}
	}
	r.logger.Info("achievement catalog seeded", "count", len(seedAchievements))
	return nil
}

const achievementColumns = `id, name, description, icon, criteria_type, criteria_value, xp_reward, rarity`

// ListAchievements retrieves the full achievement catalog
func (r *Repository) ListAchievements(ctx context.Context) ([]domain.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing achievements: %w", err)
	}
	defer rows.Close()

	var achievements []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon,
			&a.CriteriaType, &a.CriteriaValue, &a.XPReward, &a.Rarity)
		if err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, nil
}

// ListLockedAchievements retrieves the achievements a user has not yet
// unlocked, which form the candidate set for evaluation
func (r *Repository) ListLockedAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	query := `
		SELECT ` + achievementColumns + `
		FROM achievements a
		WHERE NOT EXISTS (
			SELECT 1 FROM user_achievements ua
			WHERE ua.achievement_id = a.id AND ua.user_id = $1
		)
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing locked achievements: %w", err)
	}
	defer rows.Close()

	var achievements []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon,
			&a.CriteriaType, &a.CriteriaValue, &a.XPReward, &a.Rarity)
		if err != nil {
			return nil, fmt.Errorf("scanning achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, nil
}

// UnlockAchievement records an unlock if absent. Returns true only when this
// call actually inserted the record, so reward xp is granted at most once
// even under concurrent submissions.
func (r *Repository) UnlockAchievement(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query, userID, achievementID, at)
	if err != nil {
		return false, fmt.Errorf("unlocking achievement: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListUserAchievements retrieves a user's unlocks with their definitions
func (r *Repository) ListUserAchievements(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error) {
	query := `
		SELECT a.id, a.name, a.description, a.icon, a.criteria_type,
			a.criteria_value, a.xp_reward, a.rarity, ua.unlocked_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user achievements: %w", err)
	}
	defer rows.Close()

	var unlocked []domain.UnlockedAchievement
	for rows.Next() {
		var u domain.UnlockedAchievement
		err := rows.Scan(&u.Achievement.ID, &u.Achievement.Name, &u.Achievement.Description,
			&u.Achievement.Icon, &u.Achievement.CriteriaType, &u.Achievement.CriteriaValue,
			&u.Achievement.XPReward, &u.Achievement.Rarity, &u.UnlockedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning user achievement: %w", err)
		}
		unlocked = append(unlocked, u)
	}
	return unlocked, nil
}
