package auth

import (
	"context"
	"sync"
	"time"
)

// 每新增这么多条记录顺带清理一次过期令牌
const memorySweepEvery = 256

// MemoryBlacklist 内存令牌黑名单，单实例部署使用
type MemoryBlacklist struct {
	tokens map[string]time.Time // jti -> 过期时间
	adds   int
	mutex  sync.RWMutex
	now    func() time.Time
}

// NewMemoryBlacklist 创建内存黑名单
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Add 将令牌添加到黑名单
func (b *MemoryBlacklist) Add(_ context.Context, tokenID string, expireAt time.Time) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !expireAt.After(b.now()) {
		return nil
	}
	b.tokens[tokenID] = expireAt

	b.adds++
	if b.adds%memorySweepEvery == 0 {
		b.sweepLocked()
	}
	return nil
}

// Contains 检查令牌是否在黑名单中
func (b *MemoryBlacklist) Contains(_ context.Context, tokenID string) bool {
	b.mutex.RLock()
	expireAt, ok := b.tokens[tokenID]
	b.mutex.RUnlock()

	return ok && b.now().Before(expireAt)
}

// Len 当前记录数
func (b *MemoryBlacklist) Len() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.tokens)
}

func (b *MemoryBlacklist) sweepLocked() {
	now := b.now()
	for id, expireAt := range b.tokens {
		if !now.Before(expireAt) {
			delete(b.tokens, id)
		}
	}
}
