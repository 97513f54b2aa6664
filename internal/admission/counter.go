// Package admission 实现发放准入原语：在一个不可分割的步骤内完成
// 用户去重检查、库存计数检查与计数递增。热路径上的共享状态只允许经由
// Counter 变更，其余组件一律只读。
package admission

import (
	"context"
	"time"
)

// Result 准入判定结果
type Result int

const (
	// Admitted 准入成功，计数已递增且去重标记已写入
	Admitted Result = iota
	// AlreadyAdmitted 用户已领取过（幂等空操作，不递增）
	AlreadyAdmitted
	// Exhausted 批次库存已发完（不递增，判定不产生任何副作用）
	Exhausted
)

// String 便于日志输出
func (r Result) String() string {
	switch r {
	case Admitted:
		return "admitted"
	case AlreadyAdmitted:
		return "already_admitted"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Counter 原子准入计数器
type Counter interface {
	// TryAdmit 原子执行：去重检查 → 计数检查 → 递增并写去重标记。
	// 两个 key 的 TTL 都会被刷新，隔日状态自动过期。
	TryAdmit(ctx context.Context, dedupKey, counterKey string, quantity int, ttl time.Duration) (Result, error)
	// InitBatchCounter 为新批次播种计数器（不存在时置 0），幂等。
	InitBatchCounter(ctx context.Context, counterKey string, ttl time.Duration) error
}
