package domain

import "time"

// SessionType represents the kind of typing attempt a session records
type SessionType string

const (
	SessionTypeLesson    SessionType = "LESSON"
	SessionTypePractice  SessionType = "PRACTICE"
	SessionTypeTimedTest SessionType = "TIMED_TEST"
	SessionTypeCustom    SessionType = "CUSTOM"
)

// IsValid reports whether the session type is one of the known values
func (t SessionType) IsValid() bool {
	switch t {
	case SessionTypeLesson, SessionTypePractice, SessionTypeTimedTest, SessionTypeCustom:
		return true
	}
	return false
}

// KeyStat holds per-key statistics captured during a session
type KeyStat struct {
	Total       int     `json:"total"`
	Errors      int     `json:"errors"`
	AverageTime float64 `json:"averageTime"`
	LastPressed int64   `json:"lastPressed"`
}

// PracticeSession is the immutable record of one completed typing attempt.
// It is created once at submission time and never mutated; all derived state
// (user stats, leaderboards) is recomputed from these records.
type PracticeSession struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id"`
	Type       SessionType        `json:"type"`
	LessonID   string             `json:"lesson_id,omitempty"`
	Duration   int64              `json:"duration"`
	WPM        float64            `json:"wpm"`
	Accuracy   float64            `json:"accuracy"`
	Errors     int                `json:"errors"`
	TotalKeys  int                `json:"total_keys"`
	KeyPresses map[string]KeyStat `json:"key_presses,omitempty"`
	StartTime  time.Time          `json:"start_time"`
	EndTime    time.Time          `json:"end_time"`
}

// SessionSubmission represents a completed session payload from a client
type SessionSubmission struct {
	UserID     string             `json:"user_id"`
	Type       SessionType        `json:"type"`
	LessonID   string             `json:"lesson_id,omitempty"`
	Duration   int64              `json:"duration"`
	WPM        float64            `json:"wpm"`
	Accuracy   float64            `json:"accuracy"`
	Errors     int                `json:"errors"`
	TotalKeys  int                `json:"total_keys"`
	KeyPresses map[string]KeyStat `json:"key_presses,omitempty"`
}

// Validate checks the submission for malformed or out-of-range fields.
// Nothing is persisted for an invalid submission.
func (s *SessionSubmission) Validate() error {
	if s.UserID == "" {
		return ErrInvalidSession
	}
	if !s.Type.IsValid() {
		return ErrInvalidSession
	}
	if s.Duration <= 0 {
		return ErrInvalidSession
	}
	if s.WPM < 0 {
		return ErrInvalidSession
	}
	if s.Accuracy < 0 || s.Accuracy > 100 {
		return ErrInvalidSession
	}
	if s.Errors < 0 || s.TotalKeys < 0 {
		return ErrInvalidSession
	}
	return nil
}
