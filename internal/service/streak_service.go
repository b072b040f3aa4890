package service

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"time"

	"learning_streak_backend/internal/model"
	"learning_streak_backend/internal/util"
	"learning_streak_backend/pkg/logger"
	"learning_streak_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// remoteTimeout 远端存储单次调用的上限
const remoteTimeout = 5 * time.Second

// StreakStore 远端主存储。Get 在记录不存在时返回 (nil, nil)
type StreakStore interface {
	Get(ctx context.Context, userID uint) (*model.StreakRecord, error)
	Put(ctx context.Context, record *model.StreakRecord) error
}

// StreakCache 本地回退缓存，按用户保存记录的JSON序列化
type StreakCache interface {
	Get(ctx context.Context, userID uint) ([]byte, error)
	Set(ctx context.Context, userID uint, payload []byte) error
}

// StreakStats 连续学习状态的只读快照
// swagger:model StreakStats
type StreakStats struct {
	CurrentStreak     int                 `json:"currentStreak"`
	LongestStreak     int                 `json:"longestStreak"`
	TotalLearningDays int                 `json:"totalLearningDays"`
	StreakStartDate   string              `json:"streakStartDate,omitempty"`
	LastLearningDate  string              `json:"lastLearningDate,omitempty"`
	LearningHistory   []model.DayActivity `json:"learningHistory"`
	LastUpdated       time.Time           `json:"lastUpdated"`
}

// DayPattern 最近七天中某一天的学习情况
// swagger:model DayPattern
type DayPattern struct {
	Date             string `json:"date"`
	Learned          bool   `json:"learned"`
	DurationSeconds  int    `json:"durationSeconds"`
	LessonsCompleted int    `json:"lessonsCompleted"`
}

// StreakService 维护用户的连续学习状态。
// 所有公开操作都不向调用方返回错误：远端或缓存失败时就地降级为
// 新记录并记日志。同一用户的并发调用没有内部串行化，调用方需要
// 自行避免同时触发同一用户的状态变更，否则可能丢失一次累加。
type StreakService struct {
	Store    StreakStore
	Cache    StreakCache
	Notifier Notifier

	now  func() time.Time
	intn func(n int) int
}

func NewStreakService(store StreakStore, cache StreakCache, notifier Notifier) *StreakService {
	return &StreakService{
		Store:    store,
		Cache:    cache,
		Notifier: notifier,
		now:      time.Now,
		intn:     rand.Intn,
	}
}

// today 当前UTC日历日
func (s *StreakService) today() string {
	return s.now().UTC().Format(model.DateLayout)
}

// daysBetween 两个日历日之间的整天数差（绝对值）
func daysBetween(a, b string) int {
	ta, errA := time.ParseInLocation(model.DateLayout, a, time.UTC)
	tb, errB := time.ParseInLocation(model.DateLayout, b, time.UTC)
	if errA != nil || errB != nil {
		return 0
	}
	days := int(tb.Sub(ta).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// load 按 远端 → 缓存 → 新记录 的顺序取记录，从不失败
func (s *StreakService) load(ctx context.Context, userID uint) *model.StreakRecord {
	if userID == 0 {
		// 未登录：仅内存态，不做任何持久化
		logger.Log.Warn("using ephemeral streak record",
			zap.NamedError("kind", util.ErrNoIdentity))
		return model.NewStreakRecord(0)
	}

	storeCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	record, err := s.Store.Get(storeCtx, userID)
	if err != nil {
		logger.Log.Warn("remote streak load failed, falling back to cache",
			zap.Uint("userID", userID),
			zap.NamedError("kind", util.ErrRemoteUnavailable), zap.Error(err))
	} else if record != nil {
		if record.LearningHistory == nil {
			record.LearningHistory = model.DayActivityList{}
		}
		return record
	}

	payload, cacheErr := s.Cache.Get(ctx, userID)
	if cacheErr != nil {
		logger.Log.Warn("streak cache read failed",
			zap.Uint("userID", userID),
			zap.NamedError("kind", util.ErrLocalUnavailable), zap.Error(cacheErr))
	} else if payload != nil {
		cached := model.NewStreakRecord(userID)
		if jsonErr := json.Unmarshal(payload, cached); jsonErr != nil {
			// 损坏的缓存条目直接丢弃，重新开始
			logger.Log.Warn("discarding malformed cached streak record",
				zap.Uint("userID", userID),
				zap.NamedError("kind", util.ErrMalformedRecord), zap.Error(jsonErr))
		} else {
			cached.UserID = userID
			return cached
		}
	}

	return model.NewStreakRecord(userID)
}

// evaluate 核心状态转移。返回记录是否发生了变化。
//
// 注意：lastLearningDate 不是昨天但整天差恰好为1时（只会在时钟或
// 时区偏移下出现）按连续处理，这是从上游行为保留下来的宽限规则。
func (s *StreakService) evaluate(record *model.StreakRecord) bool {
	today := s.today()

	if record.LastLearningDate == "" {
		record.CurrentStreak = 1
		record.LastLearningDate = today
		record.StreakStartDate = today
		record.EnsureDay(today)
		record.TotalLearningDays = len(record.LearningHistory)
		if record.LongestStreak < record.CurrentStreak {
			record.LongestStreak = record.CurrentStreak
		}
		return true
	}

	// 同一天重复调用是幂等的
	if record.LastLearningDate == today {
		return false
	}

	yesterday := s.now().UTC().AddDate(0, 0, -1).Format(model.DateLayout)
	if record.LastLearningDate == yesterday {
		record.CurrentStreak++
	} else {
		daysMissed := daysBetween(record.LastLearningDate, today)
		if daysMissed > 1 {
			// 连续中断：先结算最长纪录再重新开始
			if record.CurrentStreak > record.LongestStreak {
				record.LongestStreak = record.CurrentStreak
			}
			record.CurrentStreak = 1
			record.StreakStartDate = today
		} else {
			// 宽限：整天差为1但不是昨天
			record.CurrentStreak++
		}
	}

	record.LastLearningDate = today
	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.EnsureDay(today)
	record.TotalLearningDays = len(record.LearningHistory)
	return true
}

// persist 先写缓存再尽力写远端，任一失败只记日志，互不回滚
func (s *StreakService) persist(ctx context.Context, record *model.StreakRecord) {
	record.LastUpdated = s.now().UTC()

	if record.UserID == 0 {
		return
	}

	payload, err := json.Marshal(record)
	if err == nil {
		if cacheErr := s.Cache.Set(ctx, record.UserID, payload); cacheErr != nil {
			monitoring.StreakPersistFailures.WithLabelValues("cache").Inc()
			logger.Log.Warn("streak cache write failed",
				zap.Uint("userID", record.UserID),
				zap.NamedError("kind", util.ErrLocalUnavailable), zap.Error(cacheErr))
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	if storeErr := s.Store.Put(storeCtx, record); storeErr != nil {
		monitoring.StreakPersistFailures.WithLabelValues("store").Inc()
		logger.Log.Warn("remote streak write failed",
			zap.Uint("userID", record.UserID),
			zap.NamedError("kind", util.ErrRemoteUnavailable), zap.Error(storeErr))
	}
}

// notifyMilestone 连续超过一天时推送激励消息，尽力而为
func (s *StreakService) notifyMilestone(ctx context.Context, record *model.StreakRecord) {
	if record.CurrentStreak > 1 && s.Notifier != nil {
		s.Notifier.Notify(ctx, record.UserID, s.MotivationalMessage(record.CurrentStreak), "streak")
	}
}

// CheckIn 加载记录并推进今天的连续状态
func (s *StreakService) CheckIn(ctx context.Context, userID uint) StreakStats {
	record := s.load(ctx, userID)
	if s.evaluate(record) {
		monitoring.StreakCheckins.Inc()
		s.persist(ctx, record)
		s.notifyMilestone(ctx, record)
	}
	return snapshot(record)
}

// RecordActivity 推进连续状态并把时长与课程数累加到今天的条目上。
// 负数时长按0处理。
func (s *StreakService) RecordActivity(ctx context.Context, userID uint, durationSeconds int) StreakStats {
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	record := s.load(ctx, userID)
	changed := s.evaluate(record)
	if changed {
		monitoring.StreakCheckins.Inc()
	}

	entry := record.EnsureDay(s.today())
	entry.DurationSeconds += durationSeconds
	entry.LessonsCompleted++
	record.TotalLearningDays = len(record.LearningHistory)

	s.persist(ctx, record)
	if changed {
		s.notifyMilestone(ctx, record)
	}
	return snapshot(record)
}

// Reset 用全新记录替换现有记录并持久化，供测试和管理用途
func (s *StreakService) Reset(ctx context.Context, userID uint) StreakStats {
	record := model.NewStreakRecord(userID)
	s.persist(ctx, record)
	return snapshot(record)
}

// Stats 只读快照，不触发状态转移
func (s *StreakService) Stats(ctx context.Context, userID uint) StreakStats {
	return snapshot(s.load(ctx, userID))
}

// HasLearnedToday 今天是否已计入连续
func (s *StreakService) HasLearnedToday(ctx context.Context, userID uint) bool {
	return s.load(ctx, userID).LastLearningDate == s.today()
}

// TodaysActivity 今天的活动条目，没有时返回零值
func (s *StreakService) TodaysActivity(ctx context.Context, userID uint) model.DayActivity {
	record := s.load(ctx, userID)
	if entry := record.FindDay(s.today()); entry != nil {
		return *entry
	}
	return model.DayActivity{Date: s.today()}
}

// WeeklyPattern 最近7个日历日（含今天）的学习情况，从旧到新
func (s *StreakService) WeeklyPattern(ctx context.Context, userID uint) []DayPattern {
	record := s.load(ctx, userID)

	pattern := make([]DayPattern, 0, 7)
	for i := 6; i >= 0; i-- {
		date := s.now().UTC().AddDate(0, 0, -i).Format(model.DateLayout)
		day := DayPattern{Date: date}
		if entry := record.FindDay(date); entry != nil {
			day.DurationSeconds = entry.DurationSeconds
			day.LessonsCompleted = entry.LessonsCompleted
			day.Learned = entry.DurationSeconds > 0 || entry.LessonsCompleted > 0
		}
		pattern = append(pattern, day)
	}
	return pattern
}

// StreakProgress 距下一个里程碑的进度百分比
func (s *StreakService) StreakProgress(ctx context.Context, userID uint) int {
	return ProgressFor(s.load(ctx, userID).CurrentStreak)
}

// ProgressFor round(min(100, current/next*100))，current达到100后恒为100
func ProgressFor(currentStreak int) int {
	if currentStreak >= milestones[len(milestones)-1] {
		return 100
	}

	next := 0
	for _, m := range milestones {
		if m > currentStreak {
			next = m
			break
		}
	}

	progress := math.Min(100, float64(currentStreak)/float64(next)*100)
	return int(math.Round(progress))
}

// snapshot 拷贝出只读视图，历史切片不与记录共享底层数组
func snapshot(record *model.StreakRecord) StreakStats {
	history := make([]model.DayActivity, len(record.LearningHistory))
	copy(history, record.LearningHistory)

	return StreakStats{
		CurrentStreak:     record.CurrentStreak,
		LongestStreak:     record.LongestStreak,
		TotalLearningDays: record.TotalLearningDays,
		StreakStartDate:   record.StreakStartDate,
		LastLearningDate:  record.LastLearningDate,
		LearningHistory:   history,
		LastUpdated:       record.LastUpdated,
	}
}
