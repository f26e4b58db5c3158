package domain

import "time"

// Difficulty represents a lesson difficulty tier
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
	DifficultyExpert       Difficulty = "EXPERT"
)

// Lesson is static practice content a session may reference
type Lesson struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Difficulty  Difficulty `json:"difficulty"`
	Language    string     `json:"language"`
	ExpectedWPM float64    `json:"expected_wpm"`
	MinAccuracy float64    `json:"min_accuracy"`
	CreatedAt   time.Time  `json:"created_at"`
}
