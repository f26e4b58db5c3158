package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

// UpsertEntry folds a session's wpm and accuracy into a period bucket entry.
// The running-average arithmetic is evaluated inside the ON CONFLICT clause
// so concurrent submissions for the same entry cannot lose updates.
func (r *Repository) UpsertEntry(ctx context.Context, e *domain.LeaderboardEntry) error {
	query := `
		INSERT INTO leaderboard_entries
			(user_id, period_type, period_start, period_end, wpm, accuracy, total_sessions)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (user_id, period_type, period_start) DO UPDATE SET
			wpm = (leaderboard_entries.wpm * leaderboard_entries.total_sessions + EXCLUDED.wpm)
				/ (leaderboard_entries.total_sessions + 1),
			accuracy = (leaderboard_entries.accuracy * leaderboard_entries.total_sessions + EXCLUDED.accuracy)
				/ (leaderboard_entries.total_sessions + 1),
			total_sessions = leaderboard_entries.total_sessions + 1
	`
	_, err := r.pool.Exec(ctx, query,
		e.UserID, string(e.PeriodType), e.PeriodStart, e.PeriodEnd, e.WPM, e.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("upserting leaderboard entry: %w", err)
	}
	return nil
}

// RerankPeriod recomputes the dense rank ordering for one bucket as a single
// statement: wpm descending, ties broken by accuracy descending, remaining
// ties by entry id for stability
func (r *Repository) RerankPeriod(ctx context.Context, period domain.PeriodType, start time.Time) error {
	query := `
		UPDATE leaderboard_entries le
		SET rank = ranked.new_rank
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY wpm DESC, accuracy DESC, id) AS new_rank
			FROM leaderboard_entries
			WHERE period_type = $1 AND period_start = $2
		) ranked
		WHERE le.id = ranked.id
	`
	_, err := r.pool.Exec(ctx, query, string(period), start)
	if err != nil {
		return fmt.Errorf("reranking period: %w", err)
	}
	return nil
}

// ListEntries retrieves a bucket's standings in rank order with usernames
func (r *Repository) ListEntries(ctx context.Context, period domain.PeriodType, start time.Time, limit, offset int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT le.id, le.user_id, u.username, le.period_type, le.period_start,
			le.period_end, le.wpm, le.accuracy, le.total_sessions, le.rank
		FROM leaderboard_entries le
		JOIN users u ON u.id = le.user_id
		WHERE le.period_type = $1 AND le.period_start = $2
		ORDER BY le.rank
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, string(period), start, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.PeriodType, &e.PeriodStart,
			&e.PeriodEnd, &e.WPM, &e.Accuracy, &e.TotalSessions, &e.Rank)
		if err != nil {
			return nil, fmt.Errorf("scanning leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CountEntries returns the number of users in a bucket
func (r *Repository) CountEntries(ctx context.Context, period domain.PeriodType, start time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM leaderboard_entries WHERE period_type = $1 AND period_start = $2`
	var count int64
	err := r.pool.QueryRow(ctx, query, string(period), start).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting leaderboard entries: %w", err)
	}
	return count, nil
}
