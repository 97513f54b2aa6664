package service

import (
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"gorm.io/gorm"
)

// CouponService 持券查询与核销服务
type CouponService struct {
	db         *gorm.DB
	batchRepo  repository.CouponBatchRepository
	issuedRepo repository.IssuedCouponRepository
	usageRepo  repository.CouponUsageRepository
	loc        *time.Location
	now        func() time.Time
}

// NewCouponService 创建持券服务
func NewCouponService(
	db *gorm.DB,
	batchRepo repository.CouponBatchRepository,
	issuedRepo repository.IssuedCouponRepository,
	usageRepo repository.CouponUsageRepository,
	cfg config.CouponConfig,
) *CouponService {
	return &CouponService{
		db:         db,
		batchRepo:  batchRepo,
		issuedRepo: issuedRepo,
		usageRepo:  usageRepo,
		loc:        cfg.Location(),
		now:        time.Now,
	}
}

// CountCoupons 用户未核销数量
func (s *CouponService) CountCoupons(userID uint) (int64, error) {
	return s.issuedRepo.CountUnusedByUser(userID)
}

// ListCoupons 用户未核销持券列表
func (s *CouponService) ListCoupons(userID uint) ([]models.IssuedCoupon, error) {
	return s.issuedRepo.ListUnusedByUser(userID)
}

// GetBatchInfo 批次详情
func (s *CouponService) GetBatchInfo(batchID uint) (*models.CouponBatch, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	return batch, nil
}

// UseCoupon 核销：标记持券记录并写入使用流水
func (s *CouponService) UseCoupon(userID, batchID, fundingID uint) error {
	now := s.now().In(s.loc)
	return s.db.Transaction(func(tx *gorm.DB) error {
		issuedRepo := s.issuedRepo.WithTx(tx)
		issued, err := issuedRepo.GetValidByUserAndBatch(userID, batchID)
		if err != nil {
			return err
		}
		if issued == nil {
			return ErrCouponNotFound
		}
		if issued.Batch != nil && !issued.Batch.IsIssuable(now) {
			return ErrBatchExpired
		}

		issued.Use(now)
		if err := issuedRepo.Update(issued); err != nil {
			return err
		}

		return s.usageRepo.WithTx(tx).Create(&models.CouponUsage{
			IssuedCouponID: issued.ID,
			UserID:         userID,
			FundingID:      fundingID,
		})
	})
}
