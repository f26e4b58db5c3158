package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/typingmaster/backend/internal/config"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// isUniqueViolation reports whether err is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			username VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'USER',
			keyboard_layout VARCHAR(20) NOT NULL DEFAULT 'QWERTY',
			theme VARCHAR(10) NOT NULL DEFAULT 'LIGHT',
			sound_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			show_heatmap BOOLEAN NOT NULL DEFAULT TRUE,
			level INT NOT NULL DEFAULT 1,
			xp BIGINT NOT NULL DEFAULT 0,
			current_streak INT NOT NULL DEFAULT 0,
			longest_streak INT NOT NULL DEFAULT 0,
			total_time BIGINT NOT NULL DEFAULT 0,
			total_lessons INT NOT NULL DEFAULT 0,
			avg_wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lessons (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			difficulty VARCHAR(20) NOT NULL DEFAULT 'BEGINNER',
			language VARCHAR(10) NOT NULL DEFAULT 'en',
			expected_wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
			min_accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS practice_sessions (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type VARCHAR(20) NOT NULL,
			lesson_id VARCHAR(64),
			duration BIGINT NOT NULL,
			wpm DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			errors INT NOT NULL,
			total_keys INT NOT NULL,
			key_presses JSONB,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			icon VARCHAR(16) NOT NULL DEFAULT '',
			criteria_type VARCHAR(20) NOT NULL,
			criteria_value DOUBLE PRECISION NOT NULL,
			xp_reward BIGINT NOT NULL DEFAULT 0,
			rarity VARCHAR(20) NOT NULL DEFAULT 'COMMON'
		)`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			achievement_id VARCHAR(64) NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
			unlocked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, achievement_id)
		)`,
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			period_type VARCHAR(10) NOT NULL,
			period_start TIMESTAMPTZ NOT NULL,
			period_end TIMESTAMPTZ NOT NULL,
			wpm DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			total_sessions INT NOT NULL DEFAULT 1,
			rank BIGINT NOT NULL DEFAULT 0,
			UNIQUE (user_id, period_type, period_start)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_end ON practice_sessions(user_id, end_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_period ON leaderboard_entries(period_type, period_start)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_rank ON leaderboard_entries(period_type, period_start, rank)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}
