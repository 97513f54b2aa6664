package queue

import (
	"encoding/json"
	"time"

	"github.com/coupon-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponIssued 优惠券发放事件任务
	TaskCouponIssued = constants.TaskCouponIssued
	// TaskBatchCreate 每日批次创建任务
	TaskBatchCreate = constants.TaskBatchCreate
)

// CouponIssuedPayload 发放事件载荷
type CouponIssuedPayload struct {
	UserID    uint      `json:"user_id"`
	BatchCode int       `json:"batch_code"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewCouponIssuedTask 创建发放事件任务
func NewCouponIssuedTask(payload CouponIssuedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponIssued, body), nil
}

// NewBatchCreateTask 创建每日批次创建任务
func NewBatchCreateTask() *asynq.Task {
	return asynq.NewTask(TaskBatchCreate, nil)
}
