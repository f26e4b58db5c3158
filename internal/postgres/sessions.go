package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/typingmaster/backend/internal/domain"
)

// CreateSession inserts an immutable practice session record
func (r *Repository) CreateSession(ctx context.Context, s *domain.PracticeSession) error {
	var keyPresses []byte
	var err error
	if s.KeyPresses != nil {
		keyPresses, err = json.Marshal(s.KeyPresses)
		if err != nil {
			return fmt.Errorf("marshaling key presses: %w", err)
		}
	}

	var lessonID *string
	if s.LessonID != "" {
		lessonID = &s.LessonID
	}

	query := `
		INSERT INTO practice_sessions (id, user_id, type, lesson_id, duration,
			wpm, accuracy, errors, total_keys, key_presses, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		s.ID, s.UserID, string(s.Type), lessonID, s.Duration,
		s.WPM, s.Accuracy, s.Errors, s.TotalKeys, keyPresses,
		s.StartTime, s.EndTime,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// ListUserSessions retrieves a user's most recent sessions, newest first
func (r *Repository) ListUserSessions(ctx context.Context, userID string, limit int) ([]domain.PracticeSession, error) {
	query := `
		SELECT id, user_id, type, lesson_id, duration,
			wpm, accuracy, errors, total_keys, key_presses, start_time, end_time
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY end_time DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.PracticeSession
	for rows.Next() {
		var s domain.PracticeSession
		var lessonID *string
		var keyPresses []byte
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Type, &lessonID, &s.Duration,
			&s.WPM, &s.Accuracy, &s.Errors, &s.TotalKeys, &keyPresses,
			&s.StartTime, &s.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if lessonID != nil {
			s.LessonID = *lessonID
		}
		if len(keyPresses) > 0 {
			if err := json.Unmarshal(keyPresses, &s.KeyPresses); err != nil {
				return nil, fmt.Errorf("unmarshaling key presses: %w", err)
			}
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
