package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/typingmaster/backend/internal/domain"
)

const lessonColumns = `id, title, description, content, difficulty, language,
	expected_wpm, min_accuracy, created_at`

// ListLessons retrieves all lessons ordered by difficulty and title
func (r *Repository) ListLessons(ctx context.Context) ([]domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons ORDER BY difficulty, title`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		var l domain.Lesson
		err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Content, &l.Difficulty,
			&l.Language, &l.ExpectedWPM, &l.MinAccuracy, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

// GetLesson retrieves a lesson by ID
func (r *Repository) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var l domain.Lesson
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Title, &l.Description, &l.Content, &l.Difficulty,
		&l.Language, &l.ExpectedWPM, &l.MinAccuracy, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLessonNotFound
		}
		return nil, fmt.Errorf("getting lesson: %w", err)
	}
	return &l, nil
}
