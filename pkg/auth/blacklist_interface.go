package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist 令牌黑名单，按 jti 记录已注销的令牌
type Blacklist interface {
	// Add 将令牌加入黑名单，expireAt 之后自动失效
	Add(ctx context.Context, tokenID string, expireAt time.Time) error

	// Contains 检查令牌是否在黑名单中
	Contains(ctx context.Context, tokenID string) bool
}

// 黑名单类型
const (
	MemoryBlacklistType = "memory"
	RedisBlacklistType  = "redis"
)

// NewBlacklist 根据类型创建黑名单，redis 客户端为空时退回内存实现
func NewBlacklist(kind string, client *redis.Client) Blacklist {
	if kind == RedisBlacklistType && client != nil {
		return NewRedisBlacklist(client)
	}
	return NewMemoryBlacklist()
}
