package admission

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryCounter 互斥锁串行化的进程内准入计数器。
// Redis 不可用或未启用时的退路，判定语义与 Lua 脚本完全一致；
// 单点互斥锁就是规格要求的串行化点。
type MemoryCounter struct {
	mu       sync.Mutex
	dedup    map[string]time.Time // dedupKey -> 过期时间
	counters map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryCounter 创建内存准入计数器
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		dedup:    make(map[string]time.Time),
		counters: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// TryAdmit 在互斥锁内完成去重、计数、递增
func (c *MemoryCounter) TryAdmit(_ context.Context, dedupKey, counterKey string, quantity int, ttl time.Duration) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiry, ok := c.dedup[dedupKey]; ok {
		if now.Before(expiry) {
			return AlreadyAdmitted, nil
		}
		delete(c.dedup, dedupKey)
	}

	entry := c.counters[counterKey]
	if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
		entry = memoryEntry{}
	}
	if entry.count >= quantity {
		return Exhausted, nil
	}

	entry.count++
	entry.expiresAt = now.Add(ttl)
	c.counters[counterKey] = entry
	c.dedup[dedupKey] = now.Add(ttl)
	return Admitted, nil
}

// InitBatchCounter 不存在时置 0
func (c *MemoryCounter) InitBatchCounter(_ context.Context, counterKey string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.counters[counterKey]; ok && now.Before(entry.expiresAt) {
		return nil
	}
	c.counters[counterKey] = memoryEntry{count: 0, expiresAt: now.Add(ttl)}
	return nil
}
