package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const streakKeyPrefix = "streak_"

// StreakCacheRepository 本地回退缓存，保存记录的JSON序列化结果
type StreakCacheRepository struct {
	Client *redis.Client
}

func NewStreakCacheRepository(client *redis.Client) *StreakCacheRepository {
	return &StreakCacheRepository{Client: client}
}

// Get 读取缓存的序列化记录，不存在时返回 (nil, nil)
func (r *StreakCacheRepository) Get(ctx context.Context, userID uint) ([]byte, error) {
	payload, err := r.Client.Get(ctx, streakKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read streak cache: %w", err)
	}
	return payload, nil
}

// Set 覆盖写入序列化记录，不设过期
func (r *StreakCacheRepository) Set(ctx context.Context, userID uint, payload []byte) error {
	if err := r.Client.Set(ctx, streakKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("write streak cache: %w", err)
	}
	return nil
}

func streakKey(userID uint) string {
	return fmt.Sprintf("%s%d", streakKeyPrefix, userID)
}
