package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/coupon-next/internal/queue"
)

// memoryEventList 进程内 FIFO，清扫逻辑测试替身
type memoryEventList struct {
	items []queue.CouponIssuedPayload
}

func (l *memoryEventList) Enabled() bool { return true }

func (l *memoryEventList) Push(_ context.Context, payload queue.CouponIssuedPayload) error {
	l.items = append(l.items, payload)
	return nil
}

func (l *memoryEventList) Pop(_ context.Context) (queue.CouponIssuedPayload, bool, error) {
	if len(l.items) == 0 {
		return queue.CouponIssuedPayload{}, false, nil
	}
	head := l.items[0]
	l.items = l.items[1:]
	return head, true, nil
}

func (l *memoryEventList) Len(_ context.Context) (int64, error) {
	return int64(len(l.items)), nil
}

func TestDrainOnceMovesFailuresToRetry(t *testing.T) {
	pending := &memoryEventList{}
	retry := &memoryEventList{}
	ctx := context.Background()
	for user := uint(1); user <= 3; user++ {
		_ = pending.Push(ctx, queue.CouponIssuedPayload{UserID: user, BatchCode: 260829})
	}

	persisted := make([]uint, 0)
	persist := func(ev queue.CouponIssuedPayload) error {
		if ev.UserID == 2 {
			return errors.New("db unavailable")
		}
		persisted = append(persisted, ev.UserID)
		return nil
	}

	drainOnce(ctx, "pending", pending, retry, persist)

	if len(pending.items) != 0 {
		t.Fatalf("pending should be drained, got %d items", len(pending.items))
	}
	if len(persisted) != 2 || persisted[0] != 1 || persisted[1] != 3 {
		t.Fatalf("persisted order want [1 3] got %v", persisted)
	}
	if len(retry.items) != 1 || retry.items[0].UserID != 2 {
		t.Fatalf("failed event should move to retry, got %v", retry.items)
	}
}

func TestDrainOnceSelfRetryBounded(t *testing.T) {
	// 重试队列自清扫：src 与 dst 相同，失败项回到尾部
	retry := &memoryEventList{}
	ctx := context.Background()
	for user := uint(1); user <= 2; user++ {
		_ = retry.Push(ctx, queue.CouponIssuedPayload{UserID: user, BatchCode: 260829})
	}

	attempts := 0
	persist := func(queue.CouponIssuedPayload) error {
		attempts++
		return errors.New("still down")
	}

	drainOnce(ctx, "retry", retry, retry, persist)

	// 处理量封顶为进入时刻的长度，单轮不会对同一事件空转
	if attempts != 2 {
		t.Fatalf("attempts want 2 got %d", attempts)
	}
	if len(retry.items) != 2 {
		t.Fatalf("failed events should stay queued, got %d", len(retry.items))
	}
	if retry.items[0].UserID != 1 || retry.items[1].UserID != 2 {
		t.Fatalf("retry order should be preserved, got %v", retry.items)
	}
}

func TestDrainOnceEventualSuccess(t *testing.T) {
	retry := &memoryEventList{}
	ctx := context.Background()
	_ = retry.Push(ctx, queue.CouponIssuedPayload{UserID: 9, BatchCode: 260829})

	failures := 2
	persisted := 0
	persist := func(queue.CouponIssuedPayload) error {
		if failures > 0 {
			failures--
			return errors.New("transient")
		}
		persisted++
		return nil
	}

	// 两轮失败回尾，第三轮落库成功
	for i := 0; i < 3; i++ {
		drainOnce(ctx, "retry", retry, retry, persist)
	}

	if persisted != 1 {
		t.Fatalf("event should persist eventually, persisted=%d", persisted)
	}
	if len(retry.items) != 0 {
		t.Fatalf("retry should be empty after success, got %d items", len(retry.items))
	}
}
