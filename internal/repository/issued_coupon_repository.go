package repository

import (
	"errors"

	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// IssuedCouponRepository 持券记录数据访问接口
type IssuedCouponRepository interface {
	Create(issued *models.IssuedCoupon) error
	ExistsByUserAndBatch(userID, batchID uint) (bool, error)
	CountByBatch(batchID uint) (int64, error)
	CountUnusedByUser(userID uint) (int64, error)
	ListUnusedByUser(userID uint) ([]models.IssuedCoupon, error)
	GetValidByUserAndBatch(userID, batchID uint) (*models.IssuedCoupon, error)
	Update(issued *models.IssuedCoupon) error
	WithTx(tx *gorm.DB) *GormIssuedCouponRepository
}

// GormIssuedCouponRepository GORM 实现
type GormIssuedCouponRepository struct {
	db *gorm.DB
}

// NewIssuedCouponRepository 创建持券记录仓库
func NewIssuedCouponRepository(db *gorm.DB) *GormIssuedCouponRepository {
	return &GormIssuedCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormIssuedCouponRepository) WithTx(tx *gorm.DB) *GormIssuedCouponRepository {
	if tx == nil {
		return r
	}
	return &GormIssuedCouponRepository{db: tx}
}

// Create 写入持券记录，(user_id, batch_id) 冲突时返回 gorm.ErrDuplicatedKey
func (r *GormIssuedCouponRepository) Create(issued *models.IssuedCoupon) error {
	return r.db.Create(issued).Error
}

// ExistsByUserAndBatch 判断用户是否已领取该批次
func (r *GormIssuedCouponRepository) ExistsByUserAndBatch(userID, batchID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.IssuedCoupon{}).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByBatch 批次已发放数量
func (r *GormIssuedCouponRepository) CountByBatch(batchID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.IssuedCoupon{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	return count, err
}

// CountUnusedByUser 用户未核销数量
func (r *GormIssuedCouponRepository) CountUnusedByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.IssuedCoupon{}).
		Where("user_id = ? AND is_used = ?", userID, false).
		Count(&count).Error
	return count, err
}

// ListUnusedByUser 用户未核销持券列表（带批次信息）
func (r *GormIssuedCouponRepository) ListUnusedByUser(userID uint) ([]models.IssuedCoupon, error) {
	var issued []models.IssuedCoupon
	err := r.db.Preload("Batch").
		Where("user_id = ? AND is_used = ?", userID, false).
		Order("id desc").
		Find(&issued).Error
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// GetValidByUserAndBatch 查找用户在该批次下未核销的持券记录
func (r *GormIssuedCouponRepository) GetValidByUserAndBatch(userID, batchID uint) (*models.IssuedCoupon, error) {
	var issued models.IssuedCoupon
	err := r.db.Preload("Batch").
		Where("user_id = ? AND batch_id = ? AND is_used = ?", userID, batchID, false).
		First(&issued).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &issued, nil
}

// Update 更新持券记录
func (r *GormIssuedCouponRepository) Update(issued *models.IssuedCoupon) error {
	return r.db.Save(issued).Error
}
