package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/stats"
)

type pipeline struct {
	store    *memStore
	mirror   *memMirror
	hub      *recordingBroadcaster
	sessions *SessionService
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	store := newMemStore()
	mirror := newMemMirror()
	hub := &recordingBroadcaster{}
	logger := discardLogger()

	lbCfg := &config.LeaderboardConfig{DefaultLimit: 100, MaxLimit: 1000}
	statsSvc := NewStatsService(store, time.UTC, logger)
	achSvc := NewAchievementService(store, store, logger)
	lbSvc := NewLeaderboardService(store, mirror, lbCfg, time.UTC, logger)
	lbSvc.SetHub(hub)

	return &pipeline{
		store:    store,
		mirror:   mirror,
		hub:      hub,
		sessions: NewSessionService(store, statsSvc, achSvc, lbSvc, logger),
	}
}

func TestSubmit_FirstSession(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Username: "ada", Level: 1})

	sess, err := p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID:   "u1",
		Type:     domain.SessionTypePractice,
		Duration: 120,
		WPM:      60,
		Accuracy: 99,
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, 2*time.Minute, sess.EndTime.Sub(sess.StartTime))

	u, err := p.store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.InDelta(t, 60, u.AvgWPM, 1e-9)
	assert.InDelta(t, 99, u.AvgAccuracy, 1e-9)
	assert.Equal(t, int64(594), u.XP)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 1, u.CurrentStreak)
	assert.Equal(t, 1, u.LongestStreak)
	assert.Equal(t, int64(120), u.TotalTime)
	assert.Equal(t, 0, u.TotalLessons)

	for _, period := range domain.Periods {
		entries := p.bucket(t, period, sess.EndTime)
		require.Len(t, entries, 1, "period=%s", period)
		assert.Equal(t, int64(1), entries[0].Rank)
		assert.InDelta(t, 60, entries[0].WPM, 1e-9)
		assert.Equal(t, 1, entries[0].TotalSessions)
	}

	// Every period got a live update
	assert.Len(t, p.hub.all(), len(domain.Periods))
}

func TestSubmit_SecondSessionSameDay(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Username: "ada", Level: 1})

	ctx := context.Background()
	_, err := p.sessions.Submit(ctx, domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 120, WPM: 60, Accuracy: 99,
	})
	require.NoError(t, err)

	sess, err := p.sessions.Submit(ctx, domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 60, WPM: 40, Accuracy: 90,
	})
	require.NoError(t, err)

	u, err := p.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.InDelta(t, 50, u.AvgWPM, 1e-9)
	assert.InDelta(t, 94.5, u.AvgAccuracy, 1e-9)
	assert.Equal(t, int64(594+360), u.XP)
	assert.Equal(t, int64(180), u.TotalTime)
	// A repeat session on the same day never extends the streak
	assert.Equal(t, 1, u.CurrentStreak)

	entries := p.bucket(t, domain.PeriodDaily, sess.EndTime)
	require.Len(t, entries, 1)
	assert.InDelta(t, 50, entries[0].WPM, 1e-9)
	assert.InDelta(t, 94.5, entries[0].Accuracy, 1e-9)
	assert.Equal(t, 2, entries[0].TotalSessions)
	assert.Equal(t, int64(1), entries[0].Rank)
}

func TestSubmit_InvalidRejected(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Level: 1})

	_, err := p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 0, WPM: 60, Accuracy: 99,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	// Nothing was persisted and no derived state changed
	assert.Empty(t, p.store.sessions)
	u, err := p.store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.XP)
}

func TestSubmit_PersistFailureIsFatal(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Level: 1})
	p.store.failCreateSession = true

	_, err := p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 60, WPM: 50, Accuracy: 95,
	})
	require.Error(t, err)

	u, uerr := p.store.GetUser(context.Background(), "u1")
	require.NoError(t, uerr)
	assert.Equal(t, int64(0), u.XP)
}

func TestSubmit_DerivesFiguresFromRawCounts(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Level: 1})

	// 500 keys over 2 minutes with 25 errors; no wpm/accuracy reported.
	sess, err := p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 120, TotalKeys: 500, Errors: 25,
	})
	require.NoError(t, err)
	assert.InDelta(t, 47.5, sess.WPM, 1e-9)
	assert.InDelta(t, 95, sess.Accuracy, 1e-9)

	// Client-reported figures win when present
	sess, err = p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypePractice, Duration: 120, TotalKeys: 500, Errors: 25,
		WPM: 52, Accuracy: 96,
	})
	require.NoError(t, err)
	assert.InDelta(t, 52, sess.WPM, 1e-9)
	assert.InDelta(t, 96, sess.Accuracy, 1e-9)
}

func TestSubmit_UnknownUserStillStoresSession(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)

	sess, err := p.sessions.Submit(context.Background(), domain.SessionSubmission{
		UserID: "ghost", Type: domain.SessionTypePractice, Duration: 60, WPM: 50, Accuracy: 95,
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Len(t, p.store.sessions, 1)
}

func TestSubmit_UnlocksAchievementsWithReward(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Level: 1})
	p.store.achievements = []domain.Achievement{
		{ID: "a1", Name: "First Steps", CriteriaType: domain.CriteriaTotalLessons, CriteriaValue: 1, XPReward: 100},
		{ID: "a2", Name: "Speed Demon", CriteriaType: domain.CriteriaTotalWPM, CriteriaValue: 60, XPReward: 500},
	}

	ctx := context.Background()
	_, err := p.sessions.Submit(ctx, domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypeLesson, LessonID: "l1", Duration: 120, WPM: 30, Accuracy: 90,
	})
	require.NoError(t, err)

	unlocked, err := p.store.ListUserAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "First Steps", unlocked[0].Achievement.Name)

	// Session xp (30*90/10 = 270) plus the 100 xp reward
	u, err := p.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(370), u.XP)

	// A second lesson does not re-grant the unlock
	_, err = p.sessions.Submit(ctx, domain.SessionSubmission{
		UserID: "u1", Type: domain.SessionTypeLesson, LessonID: "l1", Duration: 120, WPM: 30, Accuracy: 90,
	})
	require.NoError(t, err)

	unlocked, err = p.store.ListUserAchievements(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, unlocked, 1)
}

func TestHistory_ClampsLimit(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.store.addUser(domain.User{ID: "u1", Level: 1})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := p.sessions.Submit(ctx, domain.SessionSubmission{
			UserID: "u1", Type: domain.SessionTypePractice, Duration: 60, WPM: 50, Accuracy: 95,
		})
		require.NoError(t, err)
	}

	got, err := p.sessions.History(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = p.sessions.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = p.sessions.History(ctx, "u1", 500)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

// bucket reads the durable standings for the bucket covering at
func (p *pipeline) bucket(t *testing.T, period domain.PeriodType, at time.Time) []domain.LeaderboardEntry {
	t.Helper()
	start := stats.PeriodStart(period, at, time.UTC)
	entries, err := p.store.ListEntries(context.Background(), period, start, 100, 0)
	require.NoError(t, err)
	return entries
}
