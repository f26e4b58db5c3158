// Package stats contains the pure formulas for a user's derived state:
// running averages, day-granularity streaks, experience and level, and the
// leaderboard period bucket boundaries. Every function here is deterministic
// and total so both the SQL store and the tests can agree on the arithmetic.
package stats

import (
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

const xpPerLevel = 1000

// RunningAverage folds a new value into an average that now covers n values.
// n is the count after including the new value.
func RunningAverage(oldAvg float64, n int64, value float64) float64 {
	if n <= 1 {
		return value
	}
	return (oldAvg*float64(n-1) + value) / float64(n)
}

// XPGain computes the experience awarded for a session
func XPGain(wpm, accuracy float64) int64 {
	return int64(wpm * accuracy / 10)
}

// LevelForXP derives the level from total experience. Level is always
// recomputed from xp, never incremented independently.
func LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	return int(xp/xpPerLevel) + 1
}

// NextStreak computes the day-granularity streak after a session ending at
// now. prevEnd is the end time of the most recent earlier session that ended
// on or after yesterday's start, or nil when no such session exists.
//
// A repeat session on the same day leaves the streak unchanged; a session
// the day after the previous one extends it; anything older resets to 1.
func NextStreak(current int, prevEnd *time.Time, now time.Time, loc *time.Location) int {
	if prevEnd == nil {
		return 1
	}

	today := DayStart(now, loc)
	prevDay := DayStart(*prevEnd, loc)

	switch {
	case prevDay.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case prevDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// Fold recomputes a user's aggregate fields with one more session included.
// sessionCount is the user's total session count after this session and
// prevEnd is the qualifying prior session end used for the streak.
func Fold(u *domain.User, s *domain.PracticeSession, sessionCount int64, prevEnd *time.Time, loc *time.Location) domain.UserStats {
	streak := NextStreak(u.CurrentStreak, prevEnd, s.EndTime, loc)
	longest := u.LongestStreak
	if streak > longest {
		longest = streak
	}

	lessons := u.TotalLessons
	if s.LessonID != "" {
		lessons++
	}

	xp := u.XP + XPGain(s.WPM, s.Accuracy)

	return domain.UserStats{
		AvgWPM:        RunningAverage(u.AvgWPM, sessionCount, s.WPM),
		AvgAccuracy:   RunningAverage(u.AvgAccuracy, sessionCount, s.Accuracy),
		CurrentStreak: streak,
		LongestStreak: longest,
		TotalTime:     u.TotalTime + s.Duration,
		TotalLessons:  lessons,
		XP:            xp,
		Level:         LevelForXP(xp),
	}
}
