package models

import (
	"time"
)

// IssuedCoupon 用户持有的优惠券
// (user_id, batch_id) 唯一约束是防止重复发放的最终兜底，消费端重放依赖它保证幂等。
type IssuedCoupon struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	BatchID   uint         `gorm:"not null;uniqueIndex:idx_issued_user_batch,priority:2" json:"batch_id"` // 批次ID
	UserID    uint         `gorm:"not null;uniqueIndex:idx_issued_user_batch,priority:1" json:"user_id"`  // 用户ID
	IsUsed    bool         `gorm:"not null;default:false" json:"is_used"`                                 // 是否已核销
	UsedAt    *time.Time   `json:"used_at"`                                                               // 核销时间
	CreatedAt time.Time    `gorm:"index" json:"created_at"`                                               // 发放时间
	Batch     *CouponBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName 指定表名
func (IssuedCoupon) TableName() string {
	return "issued_coupons"
}

// Use 核销
func (c *IssuedCoupon) Use(now time.Time) {
	c.IsUsed = true
	c.UsedAt = &now
}
