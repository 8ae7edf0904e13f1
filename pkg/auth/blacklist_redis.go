package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yidong-blog/blog-api/internal/logger"
	"go.uber.org/zap"
)

// Redis键前缀
const blacklistKeyPrefix = "jwt:blacklist:"

// RedisBlacklist Redis令牌黑名单，多实例部署共享
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist 创建Redis黑名单
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

// Add 将令牌添加到黑名单，TTL 与令牌剩余有效期一致
func (b *RedisBlacklist) Add(ctx context.Context, tokenID string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.client.Set(ctx, blacklistKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}
	return nil
}

// Contains 检查令牌是否在黑名单中，Redis 异常时按未注销处理
func (b *RedisBlacklist) Contains(ctx context.Context, tokenID string) bool {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		logger.Error("检查Redis黑名单失败", zap.String("jti", tokenID), zap.Error(err))
		return false
	}
	return n > 0
}
