package stats

import (
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

// allTimeEnd is the sentinel bucket end for the single all-time bucket.
var allTimeEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// DayStart returns midnight of t's calendar day in the reference timezone
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WeekStart returns midnight of the most recent Sunday in the reference
// timezone. Sunday is the fixed week boundary.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	day := DayStart(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// PeriodStart returns the bucket key for a session ending at t
func PeriodStart(period domain.PeriodType, t time.Time, loc *time.Location) time.Time {
	switch period {
	case domain.PeriodDaily:
		return DayStart(t, loc)
	case domain.PeriodWeekly:
		return WeekStart(t, loc)
	default:
		return time.Unix(0, 0).UTC()
	}
}

// PeriodEnd derives the bucket end from its start
func PeriodEnd(period domain.PeriodType, start time.Time) time.Time {
	switch period {
	case domain.PeriodDaily:
		return start.AddDate(0, 0, 1)
	case domain.PeriodWeekly:
		return start.AddDate(0, 0, 7)
	default:
		return allTimeEnd
	}
}
