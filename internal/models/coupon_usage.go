package models

import (
	"time"
)

// CouponUsage 优惠券核销记录
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	IssuedCouponID uint      `gorm:"index;not null" json:"issued_coupon_id"` // 持券记录ID
	UserID         uint      `gorm:"index;not null" json:"user_id"`          // 用户ID
	FundingID      uint      `gorm:"index;not null" json:"funding_id"`       // 使用的订单/项目ID
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                // 核销时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usages"
}
