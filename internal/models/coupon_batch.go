package models

import (
	"time"
)

// CouponBatch 每日优惠券批次
// 每个自然日一条记录，编码由日期推导，创建后除隐式过期外不再变更。
type CouponBatch struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	Code           int       `gorm:"uniqueIndex;not null" json:"code"`                             // 批次编码（yyMMdd）
	TotalQuantity  int       `gorm:"not null" json:"total_quantity"`                               // 发放总量
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 面额
	StartDate      time.Time `gorm:"not null" json:"start_date"`                                   // 生效时间
	EndDate        time.Time `gorm:"not null" json:"end_date"`                                     // 失效时间
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (CouponBatch) TableName() string {
	return "coupon_batches"
}

// IsIssuable 判断当前时刻是否在发放窗口内
func (b *CouponBatch) IsIssuable(now time.Time) bool {
	return !now.Before(b.StartDate) && now.Before(b.EndDate)
}
