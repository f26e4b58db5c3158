package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
)

// Mirror keeps a Redis copy of leaderboard buckets for fast reads. Each
// bucket is a sorted set ordering users by their durable rank plus a hash
// of rendered entries keyed by user id. PostgreSQL remains the source of
// truth; the mirror is rebuilt after every rerank and by the sync worker.
type Mirror struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMirror creates a new Redis leaderboard mirror
func NewMirror(cfg *config.RedisConfig, logger *slog.Logger) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Mirror{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (m *Mirror) Close() error {
	return m.client.Close()
}

// Client returns the underlying Redis client
func (m *Mirror) Client() *redis.Client {
	return m.client
}

// bucketKey returns the sorted-set key for a period bucket
func (m *Mirror) bucketKey(period domain.PeriodType, start time.Time) string {
	return fmt.Sprintf("leaderboard:%s:%d:ranking", period, start.Unix())
}

// entriesKey returns the hash key holding rendered entries for a bucket
func (m *Mirror) entriesKey(period domain.PeriodType, start time.Time) string {
	return fmt.Sprintf("leaderboard:%s:%d:entries", period, start.Unix())
}

// ReplaceBucket swaps in the full standings for a bucket in one transaction.
// Ranks are already computed durably, so the sorted set scores by rank; any
// score derived from wpm and accuracy could disagree with the durable
// ordering when running averages sit arbitrarily close together.
func (m *Mirror) ReplaceBucket(ctx context.Context, period domain.PeriodType, start time.Time, entries []domain.LeaderboardEntry) error {
	rankingKey := m.bucketKey(period, start)
	entriesKey := m.entriesKey(period, start)

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, rankingKey)
	pipe.Del(ctx, entriesKey)

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		pipe.ZAdd(ctx, rankingKey, redis.Z{
			Score:  float64(e.Rank),
			Member: e.UserID,
		})
		pipe.HSet(ctx, entriesKey, e.UserID, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing bucket: %w", err)
	}
	return nil
}

// TopN returns the top N standings of a bucket in rank order
func (m *Mirror) TopN(ctx context.Context, period domain.PeriodType, start time.Time, n int) ([]domain.LeaderboardEntry, error) {
	rankingKey := m.bucketKey(period, start)
	userIDs, err := m.client.ZRange(ctx, rankingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading ranking: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	raw, err := m.client.HMGet(ctx, m.entriesKey(period, start), userIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(userIDs))
	for i, v := range raw {
		data, ok := v.(string)
		if !ok {
			// Entry hash is stale relative to the ranking set; let the
			// caller fall back to the durable store.
			return nil, fmt.Errorf("missing mirrored entry for user %s", userIDs[i])
		}
		var e domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshaling entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Count returns the number of users mirrored for a bucket
func (m *Mirror) Count(ctx context.Context, period domain.PeriodType, start time.Time) (int64, error) {
	count, err := m.client.ZCard(ctx, m.bucketKey(period, start)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting bucket: %w", err)
	}
	return count, nil
}
