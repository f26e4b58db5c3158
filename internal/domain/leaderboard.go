package domain

import "time"

// PeriodType represents a leaderboard time bucket granularity
type PeriodType string

const (
	PeriodDaily   PeriodType = "DAILY"
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodAllTime PeriodType = "ALL_TIME"
)

// Periods lists every period type a session is folded into
var Periods = []PeriodType{PeriodDaily, PeriodWeekly, PeriodAllTime}

// ParsePeriod maps an API path segment to a period type
func ParsePeriod(s string) (PeriodType, bool) {
	switch s {
	case "daily":
		return PeriodDaily, true
	case "weekly":
		return PeriodWeekly, true
	case "all-time", "all_time":
		return PeriodAllTime, true
	}
	return "", false
}

// LeaderboardEntry is the aggregate standing of one user within one time
// bucket. Exactly one entry exists per (user, period type, period start);
// wpm and accuracy are running averages over the sessions in the bucket.
type LeaderboardEntry struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"user_id"`
	Username      string     `json:"username,omitempty"`
	PeriodType    PeriodType `json:"period_type"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     time.Time  `json:"period_end"`
	WPM           float64    `json:"wpm"`
	Accuracy      float64    `json:"accuracy"`
	TotalSessions int        `json:"total_sessions"`
	Rank          int64      `json:"rank"`
}

// LeaderboardStats summarizes a period's current bucket
type LeaderboardStats struct {
	PeriodType  PeriodType `json:"period_type"`
	PeriodStart time.Time  `json:"period_start"`
	TotalUsers  int64      `json:"total_users"`
	TopUsername string     `json:"top_username,omitempty"`
	TopWPM      float64    `json:"top_wpm,omitempty"`
}

// LeaderboardUpdate is the per-period result of folding a session into the
// standings, broadcast to live subscribers after the rerank
type LeaderboardUpdate struct {
	PeriodType  PeriodType         `json:"period_type"`
	PeriodStart time.Time          `json:"period_start"`
	Entries     []LeaderboardEntry `json:"entries"`
	TotalUsers  int64              `json:"total_users"`
}
