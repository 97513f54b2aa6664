package service

import (
	"context"
	"errors"
	"time"

	"github.com/coupon-next/internal/admission"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/coupon"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"gorm.io/gorm"
)

// BatchService 每日批次生命周期服务
// 批次一天一条，PENDING→ACTIVE 在创建时完成，ACTIVE→EXPIRED 由 endDate 隐式决定。
type BatchService struct {
	batchRepo repository.CouponBatchRepository
	counter   admission.Counter
	quantity  int
	discount  models.Money
	loc       *time.Location
	now       func() time.Time
}

// NewBatchService 创建批次服务
func NewBatchService(batchRepo repository.CouponBatchRepository, counter admission.Counter, cfg config.CouponConfig) *BatchService {
	discount, err := models.NewMoneyFromString(cfg.DiscountAmount)
	if err != nil {
		// 面额配置损坏属于运维级错误：记录后用零值继续，不能阻断既有批次发放
		logger.Errorw("batch_discount_amount_invalid", "value", cfg.DiscountAmount, "error", err)
	}
	quantity := cfg.DailyQuantity
	if quantity <= 0 {
		quantity = 100
	}
	return &BatchService{
		batchRepo: batchRepo,
		counter:   counter,
		quantity:  quantity,
		discount:  discount,
		loc:       cfg.Location(),
		now:       time.Now,
	}
}

// TodayCode 当天批次编码
func (s *BatchService) TodayCode() int {
	return coupon.TodayCode(s.now().In(s.loc))
}

// CreateTodayBatch 创建当天批次，幂等：已存在时直接返回既有批次。
// 创建失败由下一次调度重试，其余组件不依赖批次先行存在（计数器按需初始化）。
func (s *BatchService) CreateTodayBatch(ctx context.Context) (*models.CouponBatch, error) {
	now := s.now().In(s.loc)
	code := coupon.TodayCode(now)

	existing, err := s.batchRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.seedCounter(ctx, code, now)
		return existing, nil
	}

	batch := &models.CouponBatch{
		Code:           code,
		TotalQuantity:  s.quantity,
		DiscountAmount: s.discount,
		StartDate:      now,
		EndDate:        coupon.EndOfDay(now),
	}
	if err := s.batchRepo.Create(batch); err != nil {
		// 两个调度实例同时创建时靠唯一索引兜底，冲突方读回已存在的批次
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Debugw("batch_create_race_lost", "code", code)
			return s.batchRepo.GetByCode(code)
		}
		return nil, err
	}
	logger.Infow("batch_created", "code", code, "quantity", s.quantity)

	s.seedCounter(ctx, code, now)
	return batch, nil
}

func (s *BatchService) seedCounter(ctx context.Context, code int, now time.Time) {
	if s.counter == nil {
		return
	}
	if err := s.counter.InitBatchCounter(ctx, coupon.CountKey(code), coupon.UntilEndOfDay(now)); err != nil {
		// 播种失败不致命：准入脚本把缺失的计数器当作 0 处理
		logger.Warnw("batch_seed_counter_failed", "code", code, "error", err)
	}
}
