package repository

import (
	"context"
	"errors"
	"fmt"

	"learning_streak_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreakRepository 远端主存储，整条记录读写
type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

// Get 读取用户的连续学习记录，不存在时返回 (nil, nil)
func (r *StreakRepository) Get(ctx context.Context, userID uint) (*model.StreakRecord, error) {
	var record model.StreakRecord
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load streak record: %w", err)
	}
	return &record, nil
}

// Put 写入整条记录，存在则按主键整行覆盖
func (r *StreakRepository) Put(ctx context.Context, record *model.StreakRecord) error {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("save streak record: %w", err)
	}
	return nil
}
