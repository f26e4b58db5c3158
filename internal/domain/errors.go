package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("email or username already registered")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrEntryNotFound       = errors.New("leaderboard entry not found")
	ErrInvalidSession      = errors.New("invalid session payload")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLessonNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAchievementNotFound) ||
		errors.Is(err, ErrEntryNotFound)
}
