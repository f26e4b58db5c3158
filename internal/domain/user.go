package domain

import "time"

// Role represents a user's access level
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a registered user along with their cumulative learning state
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`

	KeyboardLayout string `json:"keyboard_layout"`
	Theme          string `json:"theme"`
	SoundEnabled   bool   `json:"sound_enabled"`
	ShowHeatmap    bool   `json:"show_heatmap"`

	Level         int     `json:"level"`
	XP            int64   `json:"xp"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	TotalTime     int64   `json:"total_time"`
	TotalLessons  int     `json:"total_lessons"`
	AvgWPM        float64 `json:"avg_wpm"`
	AvgAccuracy   float64 `json:"avg_accuracy"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStats holds the recomputed aggregate fields written back to a user
// after a session has been folded in. longest_streak >= current_streak and
// level is always derived from xp, never incremented on its own.
type UserStats struct {
	AvgWPM        float64
	AvgAccuracy   float64
	CurrentStreak int
	LongestStreak int
	TotalTime     int64
	TotalLessons  int
	XP            int64
	Level         int
}

// RegisterRequest represents a request to create a new account
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the authenticated user
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
