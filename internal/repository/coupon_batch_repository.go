package repository

import (
	"errors"

	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponBatchRepository 批次数据访问接口
type CouponBatchRepository interface {
	GetByID(id uint) (*models.CouponBatch, error)
	GetByCode(code int) (*models.CouponBatch, error)
	// GetByCodeForUpdate 行锁读取，同步发放路径在事务内持有该锁完成整个检查-插入序列
	GetByCodeForUpdate(code int) (*models.CouponBatch, error)
	ExistsByCode(code int) (bool, error)
	Create(batch *models.CouponBatch) error
	WithTx(tx *gorm.DB) *GormCouponBatchRepository
}

// GormCouponBatchRepository GORM 实现
type GormCouponBatchRepository struct {
	db *gorm.DB
}

// NewCouponBatchRepository 创建批次仓库
func NewCouponBatchRepository(db *gorm.DB) *GormCouponBatchRepository {
	return &GormCouponBatchRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponBatchRepository) WithTx(tx *gorm.DB) *GormCouponBatchRepository {
	if tx == nil {
		return r
	}
	return &GormCouponBatchRepository{db: tx}
}

// GetByID 根据ID获取批次
func (r *GormCouponBatchRepository) GetByID(id uint) (*models.CouponBatch, error) {
	var batch models.CouponBatch
	if err := r.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// GetByCode 根据批次编码获取批次
func (r *GormCouponBatchRepository) GetByCode(code int) (*models.CouponBatch, error) {
	var batch models.CouponBatch
	if err := r.db.Where("code = ?", code).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// GetByCodeForUpdate 行锁读取批次
func (r *GormCouponBatchRepository) GetByCodeForUpdate(code int) (*models.CouponBatch, error) {
	var batch models.CouponBatch
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// ExistsByCode 判断批次是否存在
func (r *GormCouponBatchRepository) ExistsByCode(code int) (bool, error) {
	var count int64
	if err := r.db.Model(&models.CouponBatch{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建批次
func (r *GormCouponBatchRepository) Create(batch *models.CouponBatch) error {
	return r.db.Create(batch).Error
}
