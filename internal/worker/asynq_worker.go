package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponIssued, c.handleCouponIssued)
	mux.HandleFunc(queue.TaskBatchCreate, c.handleBatchCreate)
}

// handleCouponIssued 消费发放事件并落库。
// 落库失败的事件转入重试队列尾部，由清扫任务按固定节奏补写；
// 只有转移本身失败时才交还 asynq 重投，事件不允许丢失。
func (c *Consumer) handleCouponIssued(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_issued_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponIssuedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_issued_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || payload.BatchCode == 0 {
		logger.Debugw("worker_coupon_issued_skip_invalid_payload", "user_id", payload.UserID, "batch_code", payload.BatchCode)
		return nil
	}
	if c.IssueService == nil {
		logger.Warnw("worker_coupon_issued_skip_issue_service_nil", "user_id", payload.UserID)
		return nil
	}

	err := c.IssueService.PersistIssued(payload)
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrBatchNotFound) {
		// 批次可能尚未创建完成，交给 asynq 按退避重投
		logger.Warnw("worker_coupon_issued_batch_missing", "user_id", payload.UserID, "batch_code", payload.BatchCode)
		return err
	}
	logger.Warnw("worker_coupon_issued_persist_failed", "user_id", payload.UserID, "batch_code", payload.BatchCode, "error", err)

	if c.RetryList.Enabled() {
		if perr := c.RetryList.Push(ctx, payload); perr == nil {
			return nil
		} else {
			logger.Errorw("worker_coupon_issued_retry_push_failed", "user_id", payload.UserID, "batch_code", payload.BatchCode, "error", perr)
		}
	}
	return err
}

// handleBatchCreate 消费每日批次创建任务
func (c *Consumer) handleBatchCreate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_batch_create_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.BatchService == nil {
		logger.Warnw("worker_batch_create_skip_batch_service_nil")
		return nil
	}
	batch, err := c.BatchService.CreateTodayBatch(ctx)
	if err != nil {
		logger.Warnw("worker_batch_create_failed", "error", err)
		return err
	}
	logger.Infow("worker_batch_ready", "code", batch.Code, "quantity", batch.TotalQuantity)
	return nil
}
