package service

import (
	"errors"
	"testing"
	"time"

	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"gorm.io/gorm"
)

func newTestCouponService(t *testing.T, now time.Time) (*CouponService, *gorm.DB) {
	t.Helper()
	db := openServiceTestDB(t)
	svc := NewCouponService(
		db,
		repository.NewCouponBatchRepository(db),
		repository.NewIssuedCouponRepository(db),
		repository.NewCouponUsageRepository(db),
		serviceTestCouponConfig(5),
	)
	svc.now = func() time.Time { return now }
	return svc, db
}

func TestCouponServiceQuery(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, db := newTestCouponService(t, now)
	batch := seedBatch(t, db, now, 5)

	issued := &models.IssuedCoupon{BatchID: batch.ID, UserID: 3}
	if err := db.Create(issued).Error; err != nil {
		t.Fatalf("seed issued failed: %v", err)
	}

	count, err := svc.CountCoupons(3)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("count want 1 got %d", count)
	}

	list, err := svc.ListCoupons(3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Batch == nil || list[0].Batch.ID != batch.ID {
		t.Fatalf("list should preload batch, got %+v", list)
	}

	info, err := svc.GetBatchInfo(batch.ID)
	if err != nil {
		t.Fatalf("get batch info failed: %v", err)
	}
	if info.Code != batch.Code {
		t.Fatalf("batch info code want %d got %d", batch.Code, info.Code)
	}
	if _, err := svc.GetBatchInfo(batch.ID + 99); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("missing batch want ErrBatchNotFound got %v", err)
	}
}

func TestUseCoupon(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, db := newTestCouponService(t, now)
	batch := seedBatch(t, db, now, 5)

	issued := &models.IssuedCoupon{BatchID: batch.ID, UserID: 3}
	if err := db.Create(issued).Error; err != nil {
		t.Fatalf("seed issued failed: %v", err)
	}

	if err := svc.UseCoupon(3, batch.ID, 42); err != nil {
		t.Fatalf("use coupon failed: %v", err)
	}

	var got models.IssuedCoupon
	if err := db.First(&got, issued.ID).Error; err != nil {
		t.Fatalf("reload issued failed: %v", err)
	}
	if !got.IsUsed || got.UsedAt == nil {
		t.Fatalf("coupon should be marked used, got %+v", got)
	}

	var usage models.CouponUsage
	if err := db.Where("issued_coupon_id = ?", issued.ID).First(&usage).Error; err != nil {
		t.Fatalf("usage row missing: %v", err)
	}
	if usage.UserID != 3 || usage.FundingID != 42 {
		t.Fatalf("usage row fields mismatch: %+v", usage)
	}

	// 已核销后再次核销
	if err := svc.UseCoupon(3, batch.ID, 43); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("reuse want ErrCouponNotFound got %v", err)
	}
}

func TestUseCouponEdgeCases(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("not_issued", func(t *testing.T) {
		svc, db := newTestCouponService(t, now)
		batch := seedBatch(t, db, now, 5)
		if err := svc.UseCoupon(9, batch.ID, 42); !errors.Is(err, ErrCouponNotFound) {
			t.Fatalf("want ErrCouponNotFound got %v", err)
		}
	})

	t.Run("expired_batch", func(t *testing.T) {
		svc, db := newTestCouponService(t, now)
		batch := &models.CouponBatch{
			Code:          260828,
			TotalQuantity: 5,
			StartDate:     now.Add(-48 * time.Hour),
			EndDate:       now.Add(-24 * time.Hour),
		}
		if err := db.Create(batch).Error; err != nil {
			t.Fatalf("seed batch failed: %v", err)
		}
		if err := db.Create(&models.IssuedCoupon{BatchID: batch.ID, UserID: 3}).Error; err != nil {
			t.Fatalf("seed issued failed: %v", err)
		}

		if err := svc.UseCoupon(3, batch.ID, 42); !errors.Is(err, ErrBatchExpired) {
			t.Fatalf("want ErrBatchExpired got %v", err)
		}
		// 核销失败不落使用流水
		var count int64
		if err := db.Model(&models.CouponUsage{}).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 0 {
			t.Fatalf("usage rows want 0 got %d", count)
		}
	})
}
