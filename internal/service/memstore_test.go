package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/typingmaster/backend/internal/domain"
)

// memStore is an in-memory Store with the same update semantics as the SQL
// repository: atomic stats folds, idempotent unlocks, and per-bucket running
// averages with dense reranking.
type memStore struct {
	mu           sync.Mutex
	users        map[string]*domain.User
	sessions     []domain.PracticeSession
	achievements []domain.Achievement
	unlocked     map[string]map[string]time.Time
	entries      map[string]*domain.LeaderboardEntry
	lessons      map[string]domain.Lesson
	nextEntryID  int64

	failCreateSession bool
	failUpsert        bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		unlocked: make(map[string]map[string]time.Time),
		entries:  make(map[string]*domain.LeaderboardEntry),
		lessons:  make(map[string]domain.Lesson),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *memStore) addUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return domain.ErrUserExists
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) ApplySessionStats(_ context.Context, sess *domain.PracticeSession, since time.Time, fold StatsFold) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[sess.UserID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	var count int64
	var prevEnd *time.Time
	for i := range m.sessions {
		s := &m.sessions[i]
		if s.UserID != sess.UserID {
			continue
		}
		count++
		if s.ID == sess.ID || s.EndTime.Before(since) {
			continue
		}
		if prevEnd == nil || s.EndTime.After(*prevEnd) {
			end := s.EndTime
			prevEnd = &end
		}
	}

	updated := fold(u, count, prevEnd)
	u.AvgWPM = updated.AvgWPM
	u.AvgAccuracy = updated.AvgAccuracy
	u.CurrentStreak = updated.CurrentStreak
	u.LongestStreak = updated.LongestStreak
	u.TotalTime = updated.TotalTime
	u.TotalLessons = updated.TotalLessons
	u.XP = updated.XP
	u.Level = updated.Level

	clone := *u
	return &clone, nil
}

func (m *memStore) AddXP(_ context.Context, userID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.XP += delta
	u.Level = int(u.XP/1000) + 1
	return nil
}

func (m *memStore) CreateSession(_ context.Context, s *domain.PracticeSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateSession {
		return fmt.Errorf("simulated write failure")
	}
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *memStore) ListUserSessions(_ context.Context, userID string, limit int) ([]domain.PracticeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PracticeSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.After(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListAchievements(_ context.Context) ([]domain.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Achievement(nil), m.achievements...), nil
}

func (m *memStore) ListLockedAchievements(_ context.Context, userID string) ([]domain.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Achievement
	for _, a := range m.achievements {
		if _, ok := m.unlocked[userID][a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) UnlockAchievement(_ context.Context, userID, achievementID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlocked[userID] == nil {
		m.unlocked[userID] = make(map[string]time.Time)
	}
	if _, ok := m.unlocked[userID][achievementID]; ok {
		return false, nil
	}
	m.unlocked[userID][achievementID] = at
	return true, nil
}

func (m *memStore) ListUserAchievements(_ context.Context, userID string) ([]domain.UnlockedAchievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UnlockedAchievement
	for _, a := range m.achievements {
		if at, ok := m.unlocked[userID][a.ID]; ok {
			out = append(out, domain.UnlockedAchievement{Achievement: a, UnlockedAt: at})
		}
	}
	return out, nil
}

func entryKey(userID string, period domain.PeriodType, start time.Time) string {
	return fmt.Sprintf("%s|%s|%d", userID, period, start.Unix())
}

func (m *memStore) UpsertEntry(_ context.Context, e *domain.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return fmt.Errorf("simulated write failure")
	}

	key := entryKey(e.UserID, e.PeriodType, e.PeriodStart)
	if existing, ok := m.entries[key]; ok {
		n := float64(existing.TotalSessions)
		existing.WPM = (existing.WPM*n + e.WPM) / (n + 1)
		existing.Accuracy = (existing.Accuracy*n + e.Accuracy) / (n + 1)
		existing.TotalSessions++
		return nil
	}

	m.nextEntryID++
	clone := *e
	clone.ID = m.nextEntryID
	clone.TotalSessions = 1
	m.entries[key] = &clone
	return nil
}

func (m *memStore) RerankPeriod(_ context.Context, period domain.PeriodType, start time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucketLocked(period, start)
	for i, e := range bucket {
		e.Rank = int64(i + 1)
	}
	return nil
}

func (m *memStore) bucketLocked(period domain.PeriodType, start time.Time) []*domain.LeaderboardEntry {
	var bucket []*domain.LeaderboardEntry
	for _, e := range m.entries {
		if e.PeriodType == period && e.PeriodStart.Equal(start) {
			bucket = append(bucket, e)
		}
	}
	sort.Slice(bucket, func(i, j int) bool {
		if bucket[i].WPM != bucket[j].WPM {
			return bucket[i].WPM > bucket[j].WPM
		}
		if bucket[i].Accuracy != bucket[j].Accuracy {
			return bucket[i].Accuracy > bucket[j].Accuracy
		}
		return bucket[i].ID < bucket[j].ID
	})
	return bucket
}

func (m *memStore) ListEntries(_ context.Context, period domain.PeriodType, start time.Time, limit, offset int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := m.bucketLocked(period, start)
	if offset >= len(bucket) {
		return nil, nil
	}
	var out []domain.LeaderboardEntry
	for _, e := range bucket[offset:] {
		out = append(out, *e)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) CountEntries(_ context.Context, period domain.PeriodType, start time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bucketLocked(period, start))), nil
}

func (m *memStore) ListLessons(_ context.Context) ([]domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Lesson
	for _, l := range m.lessons {
		out = append(out, l)
	}
	return out, nil
}

func (m *memStore) GetLesson(_ context.Context, id string) (*domain.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok {
		return nil, domain.ErrLessonNotFound
	}
	return &l, nil
}

// memMirror is an in-memory Mirror recording replaced buckets
type memMirror struct {
	mu        sync.Mutex
	buckets   map[string][]domain.LeaderboardEntry
	failTop   bool
	failCount bool
}

func newMemMirror() *memMirror {
	return &memMirror{buckets: make(map[string][]domain.LeaderboardEntry)}
}

func mirrorKey(period domain.PeriodType, start time.Time) string {
	return fmt.Sprintf("%s|%d", period, start.Unix())
}

func (m *memMirror) ReplaceBucket(_ context.Context, period domain.PeriodType, start time.Time, entries []domain.LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[mirrorKey(period, start)] = append([]domain.LeaderboardEntry(nil), entries...)
	return nil
}

func (m *memMirror) TopN(_ context.Context, period domain.PeriodType, start time.Time, n int) ([]domain.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTop {
		return nil, fmt.Errorf("simulated read failure")
	}
	entries := m.buckets[mirrorKey(period, start)]
	if len(entries) > n {
		entries = entries[:n]
	}
	return append([]domain.LeaderboardEntry(nil), entries...), nil
}

func (m *memMirror) Count(_ context.Context, period domain.PeriodType, start time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCount {
		return 0, fmt.Errorf("simulated read failure")
	}
	return int64(len(m.buckets[mirrorKey(period, start)])), nil
}

// recordingBroadcaster captures standings updates
type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []domain.LeaderboardUpdate
}

func (b *recordingBroadcaster) BroadcastLeaderboardUpdate(update domain.LeaderboardUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
}

func (b *recordingBroadcaster) all() []domain.LeaderboardUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.LeaderboardUpdate(nil), b.updates...)
}
