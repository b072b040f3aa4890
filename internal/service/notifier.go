package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learning_streak_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Notifier 通知接收端，发送失败不影响主流程
type Notifier interface {
	Notify(ctx context.Context, userID uint, message, category string)
}

// RedisNotifier 把通知发布到用户各自的频道，由前端网关订阅转发
type RedisNotifier struct {
	Client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{Client: client}
}

type notification struct {
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uint, message, category string) {
	if userID == 0 {
		return
	}

	payload, err := json.Marshal(notification{
		Message:   message,
		Category:  category,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return
	}

	channel := fmt.Sprintf("notifications:%d", userID)
	if err := n.Client.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Log.Debug("notification publish failed",
			zap.Uint("userID", userID), zap.Error(err))
	}
}
