package domain

import "time"

// CriteriaType represents the kind of threshold an achievement checks
type CriteriaType string

const (
	CriteriaTotalLessons  CriteriaType = "TOTAL_LESSONS"
	CriteriaTotalWPM      CriteriaType = "TOTAL_WPM"
	CriteriaAccuracy      CriteriaType = "ACCURACY"
	CriteriaStreakDays    CriteriaType = "STREAK_DAYS"
	CriteriaTotalTime     CriteriaType = "TOTAL_TIME"
	CriteriaPerfectLesson CriteriaType = "PERFECT_LESSON"
	CriteriaLevel         CriteriaType = "LEVEL"
)

// Rarity represents an achievement's rarity tier
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Achievement is a static criterion definition, seeded once and never mutated
type Achievement struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Icon          string       `json:"icon,omitempty"`
	CriteriaType  CriteriaType `json:"criteria_type"`
	CriteriaValue float64      `json:"criteria_value"`
	XPReward      int64        `json:"xp_reward"`
	Rarity        Rarity       `json:"rarity"`
}

// UserAchievement marks that an achievement is unlocked for a user.
// At most one record exists per (user, achievement) pair.
type UserAchievement struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// UnlockedAchievement pairs an unlock record with its definition for API reads
type UnlockedAchievement struct {
	Achievement Achievement `json:"achievement"`
	UnlockedAt  time.Time   `json:"unlocked_at"`
}
