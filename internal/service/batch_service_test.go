package service

import (
	"context"
	"testing"
	"time"

	"github.com/coupon-next/internal/admission"
	"github.com/coupon-next/internal/coupon"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"
)

// recordingCounter 记录计数器播种调用
type recordingCounter struct {
	*admission.MemoryCounter
	seeded []string
}

func (c *recordingCounter) InitBatchCounter(ctx context.Context, counterKey string, ttl time.Duration) error {
	c.seeded = append(c.seeded, counterKey)
	return c.MemoryCounter.InitBatchCounter(ctx, counterKey, ttl)
}

func TestCreateTodayBatchIdempotent(t *testing.T) {
	db := openServiceTestDB(t)
	counter := &recordingCounter{MemoryCounter: admission.NewMemoryCounter()}
	svc := NewBatchService(repository.NewCouponBatchRepository(db), counter, serviceTestCouponConfig(5))
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.CreateTodayBatch(context.Background())
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	wantCode := coupon.TodayCode(now)
	if first.Code != wantCode {
		t.Fatalf("batch code want %d got %d", wantCode, first.Code)
	}
	if first.TotalQuantity != 5 {
		t.Fatalf("batch quantity want 5 got %d", first.TotalQuantity)
	}
	if !first.EndDate.Equal(coupon.EndOfDay(now)) {
		t.Fatalf("batch end date want %v got %v", coupon.EndOfDay(now), first.EndDate)
	}

	// 重复调度不创建第二条
	second, err := svc.CreateTodayBatch(context.Background())
	if err != nil {
		t.Fatalf("repeated create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeated create should return existing batch, ids %d vs %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.CouponBatch{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("batch rows want 1 got %d", count)
	}
}

func TestCreateTodayBatchSeedsCounter(t *testing.T) {
	db := openServiceTestDB(t)
	counter := &recordingCounter{MemoryCounter: admission.NewMemoryCounter()}
	svc := NewBatchService(repository.NewCouponBatchRepository(db), counter, serviceTestCouponConfig(5))
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.CreateTodayBatch(context.Background()); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	// 已存在分支同样会播种
	if _, err := svc.CreateTodayBatch(context.Background()); err != nil {
		t.Fatalf("repeated create failed: %v", err)
	}

	wantKey := coupon.CountKey(coupon.TodayCode(now))
	if len(counter.seeded) != 2 {
		t.Fatalf("seed calls want 2 got %d", len(counter.seeded))
	}
	for _, key := range counter.seeded {
		if key != wantKey {
			t.Fatalf("seed key want %q got %q", wantKey, key)
		}
	}
}
