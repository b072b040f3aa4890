package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// DateLayout 日历日格式（UTC，不含时间部分）
const DateLayout = "2006-01-02"

// HistoryLimit 学习历史最多保留的天数，超出后淘汰最旧的记录
const HistoryLimit = 365

// DayActivity 单日学习活动
// swagger:model DayActivity
type DayActivity struct {
	Date             string `json:"date"`
	DurationSeconds  int    `json:"durationSeconds"`
	LessonsCompleted int    `json:"lessonsCompleted"`
}

// DayActivityList 按日期升序排列的学习历史，以JSON列形式存储
type DayActivityList []DayActivity

func (l DayActivityList) Value() (driver.Value, error) {
	if l == nil {
		l = DayActivityList{}
	}
	return json.Marshal(l)
}

func (l *DayActivityList) Scan(value interface{}) error {
	if value == nil {
		*l = DayActivityList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported column type for DayActivityList")
	}

	if len(data) == 0 {
		*l = DayActivityList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// StreakRecord 用户的连续学习记录，每个用户一行。
// 历史以JSON列保存，读写走整条记录，语义上等同于文档存取。
// swagger:model StreakRecord
type StreakRecord struct {
	UserID            uint            `gorm:"primaryKey" json:"-"`
	CurrentStreak     int             `gorm:"default:0" json:"currentStreak"`
	LongestStreak     int             `gorm:"default:0" json:"longestStreak"`
	LastLearningDate  string          `gorm:"size:10" json:"lastLearningDate,omitempty"`
	StreakStartDate   string          `gorm:"size:10" json:"streakStartDate,omitempty"`
	LearningHistory   DayActivityList `gorm:"type:json" json:"learningHistory"`
	TotalLearningDays int             `gorm:"default:0" json:"totalLearningDays"`
	LastUpdated       time.Time       `json:"lastUpdated"`
}

func (StreakRecord) TableName() string {
	return "streak_records"
}

// NewStreakRecord 创建全新的空记录
func NewStreakRecord(userID uint) *StreakRecord {
	return &StreakRecord{
		UserID:          userID,
		LearningHistory: DayActivityList{},
	}
}

// FindDay 返回指定日期的历史条目，不存在时返回nil
func (r *StreakRecord) FindDay(date string) *DayActivity {
	for i := range r.LearningHistory {
		if r.LearningHistory[i].Date == date {
			return &r.LearningHistory[i]
		}
	}
	return nil
}

// EnsureDay 返回指定日期的历史条目，不存在时插入空条目。
// 插入后保持日期升序并裁剪到 HistoryLimit，最旧的先淘汰。
func (r *StreakRecord) EnsureDay(date string) *DayActivity {
	if entry := r.FindDay(date); entry != nil {
		return entry
	}

	r.LearningHistory = append(r.LearningHistory, DayActivity{Date: date})
	sort.Slice(r.LearningHistory, func(i, j int) bool {
		return r.LearningHistory[i].Date < r.LearningHistory[j].Date
	})
	if len(r.LearningHistory) > HistoryLimit {
		r.LearningHistory = r.LearningHistory[len(r.LearningHistory)-HistoryLimit:]
	}
	return r.FindDay(date)
}
