package repository

import (
	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// CouponUsageRepository 核销记录数据访问接口
type CouponUsageRepository interface {
	Create(usage *models.CouponUsage) error
	WithTx(tx *gorm.DB) *GormCouponUsageRepository
}

// GormCouponUsageRepository GORM 实现
type GormCouponUsageRepository struct {
	db *gorm.DB
}

// NewCouponUsageRepository 创建核销记录仓库
func NewCouponUsageRepository(db *gorm.DB) *GormCouponUsageRepository {
	return &GormCouponUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponUsageRepository) WithTx(tx *gorm.DB) *GormCouponUsageRepository {
	if tx == nil {
		return r
	}
	return &GormCouponUsageRepository{db: tx}
}

// Create 写入核销记录
func (r *GormCouponUsageRepository) Create(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}
