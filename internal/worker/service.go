package worker

import (
	"context"
	"errors"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/queue"

	"github.com/hibiken/asynq"
)

// eventList 清扫任务操作的事件缓冲
type eventList interface {
	Enabled() bool
	Push(ctx context.Context, payload queue.CouponIssuedPayload) error
	Pop(ctx context.Context) (queue.CouponIssuedPayload, bool, error)
	Len(ctx context.Context) (int64, error)
}

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	drainInterval time.Duration
	retryInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		drainInterval: cfg.Scheduler.DrainInterval(),
		retryInterval: cfg.Scheduler.RetryInterval(),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.IssueService != nil {
		if s.consumer.PendingList.Enabled() {
			go s.runDrainLoop(ctx, "pending", s.consumer.PendingList, s.consumer.RetryList, s.drainInterval)
		}
		if s.consumer.RetryList.Enabled() {
			go s.runDrainLoop(ctx, "retry", s.consumer.RetryList, s.consumer.RetryList, s.retryInterval)
		}
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runDrainLoop 按固定节奏清扫事件缓冲。
// 兜底队列的失败项转入重试队列，重试队列的失败项回到自身尾部。
func (s *Service) runDrainLoop(ctx context.Context, name string, src, dst eventList, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			drainOnce(ctx, name, src, dst, s.consumer.IssueService.PersistIssued)
		}
	}
}

// drainOnce 清扫一轮：最多处理进入时刻的队列长度，失败项推到 dst 尾部。
// 处理量封顶保证 src 与 dst 相同（重试队列自清扫）时单轮必然结束，
// 坏事件留到下一轮而不是在本轮里空转。
func drainOnce(ctx context.Context, name string, src, dst eventList, persist func(queue.CouponIssuedPayload) error) {
	n, err := src.Len(ctx)
	if err != nil {
		logger.Warnw("drain_len_failed", "list", name, "error", err)
		return
	}
	for i := int64(0); i < n; i++ {
		ev, ok, err := src.Pop(ctx)
		if err != nil {
			logger.Warnw("drain_pop_failed", "list", name, "error", err)
			return
		}
		if !ok {
			return
		}
		if err := persist(ev); err != nil {
			logger.Warnw("drain_persist_failed", "list", name, "user_id", ev.UserID, "batch_code", ev.BatchCode, "error", err)
			if perr := dst.Push(ctx, ev); perr != nil {
				logger.Errorw("drain_requeue_failed", "list", name, "user_id", ev.UserID, "batch_code", ev.BatchCode, "error", perr)
			}
			continue
		}
		logger.Debugw("drain_persisted", "list", name, "user_id", ev.UserID, "batch_code", ev.BatchCode)
	}
}
