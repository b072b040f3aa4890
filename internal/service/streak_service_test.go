package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"learning_streak_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)

const (
	today     = "2026-08-25"
	yesterday = "2026-08-24"
)

type fakeStore struct {
	records map[uint]*model.StreakRecord
	getErr  error
	putErr  error
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[uint]*model.StreakRecord)}
}

func (f *fakeStore) Get(_ context.Context, userID uint) (*model.StreakRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

func (f *fakeStore) Put(_ context.Context, record *model.StreakRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.records[record.UserID] = cloneRecord(record)
	f.puts++
	return nil
}

func cloneRecord(record *model.StreakRecord) *model.StreakRecord {
	clone := *record
	clone.LearningHistory = make(model.DayActivityList, len(record.LearningHistory))
	copy(clone.LearningHistory, record.LearningHistory)
	return &clone
}

type fakeCache struct {
	entries map[uint][]byte
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uint][]byte)}
}

func (f *fakeCache) Get(_ context.Context, userID uint) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	payload, ok := f.entries[userID]
	if !ok {
		return nil, nil
	}
	return payload, nil
}

func (f *fakeCache) Set(_ context.Context, userID uint, payload []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[userID] = payload
	return nil
}

type fakeNotifier struct {
	messages   []string
	categories []string
}

func (f *fakeNotifier) Notify(_ context.Context, _ uint, message, category string) {
	f.messages = append(f.messages, message)
	f.categories = append(f.categories, category)
}

func newTestService(store *fakeStore, cache *fakeCache) (*StreakService, *fakeNotifier) {
	notifier := &fakeNotifier{}
	s := NewStreakService(store, cache, notifier)
	s.now = func() time.Time { return testNow }
	s.intn = func(n int) int { return 0 }
	return s, notifier
}

func TestCheckInFreshStart(t *testing.T) {
	store := newFakeStore()
	s, notifier := newTestService(store, newFakeCache())

	stats := s.CheckIn(context.Background(), 1)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.LongestStreak)
	assert.Equal(t, today, stats.LastLearningDate)
	assert.Equal(t, today, stats.StreakStartDate)
	require.Len(t, stats.LearningHistory, 1)
	assert.Equal(t, today, stats.LearningHistory[0].Date)
	assert.Equal(t, 1, stats.TotalLearningDays)

	// 第一天不推送激励消息
	assert.Empty(t, notifier.messages)
	assert.Equal(t, 1, store.puts)
}

func TestCheckInIdempotentSameDay(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, newFakeCache())

	first := s.CheckIn(context.Background(), 1)
	second := s.CheckIn(context.Background(), 1)

	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.TotalLearningDays, second.TotalLearningDays)
	// 同一天的第二次调用不再持久化
	assert.Equal(t, 1, store.puts)
}

func TestCheckInContinuesStreak(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &model.StreakRecord{
		UserID:            1,
		CurrentStreak:     3,
		LongestStreak:     3,
		LastLearningDate:  yesterday,
		StreakStartDate:   "2026-08-22",
		LearningHistory:   model.DayActivityList{{Date: yesterday, DurationSeconds: 100, LessonsCompleted: 1}},
		TotalLearningDays: 1,
	}
	s, notifier := newTestService(store, newFakeCache())

	stats := s.CheckIn(context.Background(), 1)

	assert.Equal(t, 4, stats.CurrentStreak)
	assert.GreaterOrEqual(t, stats.LongestStreak, 4)
	assert.Equal(t, today, stats.LastLearningDate)
	assert.Equal(t, "2026-08-22", stats.StreakStartDate)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "streak", notifier.categories[0])
}

func TestCheckInBreakResetsStreak(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &model.StreakRecord{
		UserID:           1,
		CurrentStreak:    5,
		LongestStreak:    2,
		LastLearningDate: "2026-08-22", // 3天前
		StreakStartDate:  "2026-08-18",
		LearningHistory:  model.DayActivityList{{Date: "2026-08-22"}},
	}
	s, _ := newTestService(store, newFakeCache())

	stats := s.CheckIn(context.Background(), 1)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 5, stats.LongestStreak)
	assert.Equal(t, today, stats.StreakStartDate)
	assert.Equal(t, today, stats.LastLearningDate)
}

func TestCheckInGraceOnClockSkew(t *testing.T) {
	// lastLearningDate 不是昨天但整天差为1（时钟偏移才会出现），按连续处理
	store := newFakeStore()
	store.records[1] = &model.StreakRecord{
		UserID:           1,
		CurrentStreak:    2,
		LongestStreak:    2,
		LastLearningDate: "2026-08-26",
		StreakStartDate:  "2026-08-25",
		LearningHistory:  model.DayActivityList{{Date: "2026-08-26"}},
	}
	s, _ := newTestService(store, newFakeCache())

	stats := s.CheckIn(context.Background(), 1)

	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, today, stats.LastLearningDate)
}

func TestCheckInHistoryCap(t *testing.T) {
	history := make(model.DayActivityList, 0, model.HistoryLimit)
	day := testNow.AddDate(0, 0, -model.HistoryLimit)
	for i := 0; i < model.HistoryLimit; i++ {
		history = append(history, model.DayActivity{Date: day.Format(model.DateLayout)})
		day = day.AddDate(0, 0, 1)
	}
	oldest := history[0].Date

	store := newFakeStore()
	store.records[1] = &model.StreakRecord{
		UserID:            1,
		CurrentStreak:     model.HistoryLimit,
		LongestStreak:     model.HistoryLimit,
		LastLearningDate:  yesterday,
		LearningHistory:   history,
		TotalLearningDays: model.HistoryLimit,
	}
	s, _ := newTestService(store, newFakeCache())

	stats := s.CheckIn(context.Background(), 1)

	assert.Len(t, stats.LearningHistory, model.HistoryLimit)
	assert.Equal(t, model.HistoryLimit, stats.TotalLearningDays)
	assert.Equal(t, today, stats.LearningHistory[len(stats.LearningHistory)-1].Date)
	for _, entry := range stats.LearningHistory {
		assert.NotEqual(t, oldest, entry.Date)
	}
}

func TestLoadFallsBackToCache(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")

	cached := &model.StreakRecord{
		UserID:            1,
		CurrentStreak:     6,
		LongestStreak:     9,
		LastLearningDate:  today,
		StreakStartDate:   "2026-08-20",
		LearningHistory:   model.DayActivityList{{Date: today, DurationSeconds: 60, LessonsCompleted: 1}},
		TotalLearningDays: 1,
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := newFakeCache()
	cache.entries[1] = payload

	s, _ := newTestService(store, cache)
	stats := s.Stats(context.Background(), 1)

	assert.Equal(t, 6, stats.CurrentStreak)
	assert.Equal(t, 9, stats.LongestStreak)
}

func TestLoadDiscardsMalformedCache(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cache.entries[1] = []byte("{not valid json")

	s, _ := newTestService(store, cache)
	stats := s.CheckIn(context.Background(), 1)

	// 损坏的缓存被丢弃，从新记录开始
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestCheckInSurvivesPersistFailures(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("write timeout")
	cache := newFakeCache()
	cache.setErr = errors.New("redis down")

	s, _ := newTestService(store, cache)
	stats := s.CheckIn(context.Background(), 1)

	// 双层持久化都失败也不影响内存态结果
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestNoIdentitySkipsPersistence(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()

	s, _ := newTestService(store, cache)
	stats := s.CheckIn(context.Background(), 0)

	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Zero(t, store.puts)
	assert.Empty(t, cache.entries)
}

func TestRecordActivityAccumulates(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, newFakeCache())

	first := s.RecordActivity(context.Background(), 1, 600)
	require.Len(t, first.LearningHistory, 1)
	assert.Equal(t, 600, first.LearningHistory[0].DurationSeconds)
	assert.Equal(t, 1, first.LearningHistory[0].LessonsCompleted)

	second := s.RecordActivity(context.Background(), 1, 300)
	require.Len(t, second.LearningHistory, 1)
	assert.Equal(t, 900, second.LearningHistory[0].DurationSeconds)
	assert.Equal(t, 2, second.LearningHistory[0].LessonsCompleted)
	assert.Equal(t, 1, second.CurrentStreak)
}

func TestRecordActivityNegativeDuration(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, newFakeCache())

	s.RecordActivity(context.Background(), 1, 600)
	stats := s.RecordActivity(context.Background(), 1, -50)

	assert.Equal(t, 600, stats.LearningHistory[0].DurationSeconds)
	assert.Equal(t, 2, stats.LearningHistory[0].LessonsCompleted)
}

func TestReset(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, newFakeCache())

	s.CheckIn(context.Background(), 1)
	stats := s.Reset(context.Background(), 1)

	assert.Zero(t, stats.CurrentStreak)
	assert.Zero(t, stats.LongestStreak)
	assert.Empty(t, stats.LearningHistory)
	assert.Empty(t, stats.LastLearningDate)

	// 重置后的空记录也要落盘
	assert.Zero(t, store.records[1].CurrentStreak)
}

func TestHasLearnedTodayAndTodaysActivity(t *testing.T) {
	store := newFakeStore()
	s, _ := newTestService(store, newFakeCache())

	assert.False(t, s.HasLearnedToday(context.Background(), 1))

	s.RecordActivity(context.Background(), 1, 120)

	assert.True(t, s.HasLearnedToday(context.Background(), 1))
	activity := s.TodaysActivity(context.Background(), 1)
	assert.Equal(t, today, activity.Date)
	assert.Equal(t, 120, activity.DurationSeconds)
	assert.Equal(t, 1, activity.LessonsCompleted)
}

func TestWeeklyPattern(t *testing.T) {
	store := newFakeStore()
	store.records[1] = &model.StreakRecord{
		UserID:           1,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastLearningDate: "2026-08-23",
		LearningHistory: model.DayActivityList{
			{Date: "2026-08-23", DurationSeconds: 300, LessonsCompleted: 2},
			{Date: yesterday}, // 存在但没有实际学习量
		},
	}
	s, _ := newTestService(store, newFakeCache())

	pattern := s.WeeklyPattern(context.Background(), 1)

	require.Len(t, pattern, 7)
	assert.Equal(t, "2026-08-19", pattern[0].Date)
	assert.Equal(t, today, pattern[6].Date)

	byDate := make(map[string]DayPattern, len(pattern))
	for _, day := range pattern {
		byDate[day.Date] = day
	}
	assert.True(t, byDate["2026-08-23"].Learned)
	assert.Equal(t, 300, byDate["2026-08-23"].DurationSeconds)
	assert.Equal(t, 2, byDate["2026-08-23"].LessonsCompleted)
	assert.False(t, byDate[yesterday].Learned)
	assert.False(t, byDate[today].Learned)
	assert.Zero(t, byDate[today].DurationSeconds)
}

func TestStatsZeroDefaults(t *testing.T) {
	s, _ := newTestService(newFakeStore(), newFakeCache())

	stats := s.Stats(context.Background(), 42)

	assert.Zero(t, stats.CurrentStreak)
	assert.Zero(t, stats.LongestStreak)
	assert.Zero(t, stats.TotalLearningDays)
	assert.Empty(t, stats.LearningHistory)
}
