package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typingmaster/backend/internal/domain"
)

func testMirror(t *testing.T) (*Mirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &Mirror{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, mr
}

func entry(userID string, wpm, accuracy float64, rank int64, start time.Time) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		UserID:      userID,
		Username:    userID,
		PeriodType:  domain.PeriodDaily,
		PeriodStart: start,
		WPM:         wpm,
		Accuracy:    accuracy,
		Rank:        rank,
	}
}

func TestTopN_PreservesDurableRanks(t *testing.T) {
	m, _ := testMirror(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Running averages sit 0.05 wpm apart; the lower-accuracy user still
	// ranks first because wpm is the primary ordering.
	entries := []domain.LeaderboardEntry{
		entry("fast", 50.05, 0, 1, start),
		entry("steady", 50.0, 100, 2, start),
	}
	require.NoError(t, m.ReplaceBucket(ctx, domain.PeriodDaily, start, entries))

	got, err := m.TopN(ctx, domain.PeriodDaily, start, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fast", got[0].UserID)
	assert.Equal(t, int64(1), got[0].Rank)
	assert.Equal(t, "steady", got[1].UserID)
	assert.Equal(t, int64(2), got[1].Rank)
}

func TestTopN_LimitsToN(t *testing.T) {
	m, _ := testMirror(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	entries := []domain.LeaderboardEntry{
		entry("a", 70, 95, 1, start),
		entry("b", 60, 95, 2, start),
		entry("c", 50, 95, 3, start),
	}
	require.NoError(t, m.ReplaceBucket(ctx, domain.PeriodDaily, start, entries))

	got, err := m.TopN(ctx, domain.PeriodDaily, start, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].UserID)
	assert.Equal(t, "b", got[1].UserID)
}

func TestTopN_EmptyBucket(t *testing.T) {
	m, _ := testMirror(t)
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := m.TopN(context.Background(), domain.PeriodDaily, start, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTopN_StaleEntryHashErrors(t *testing.T) {
	m, mr := testMirror(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	entries := []domain.LeaderboardEntry{entry("a", 70, 95, 1, start)}
	require.NoError(t, m.ReplaceBucket(ctx, domain.PeriodDaily, start, entries))

	// The entry hash lost a member the ranking set still lists; reads must
	// error so the caller falls back to the durable store.
	mr.HDel(m.entriesKey(domain.PeriodDaily, start), "a")

	_, err := m.TopN(ctx, domain.PeriodDaily, start, 10)
	assert.Error(t, err)
}

func TestReplaceBucket_OverwritesPreviousStandings(t *testing.T) {
	m, _ := testMirror(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.ReplaceBucket(ctx, domain.PeriodDaily, start, []domain.LeaderboardEntry{
		entry("a", 70, 95, 1, start),
		entry("b", 60, 95, 2, start),
	}))
	require.NoError(t, m.ReplaceBucket(ctx, domain.PeriodDaily, start, []domain.LeaderboardEntry{
		entry("c", 80, 95, 1, start),
	}))

	got, err := m.TopN(ctx, domain.PeriodDaily, start, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].UserID)

	count, err := m.Count(ctx, domain.PeriodDaily, start)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
