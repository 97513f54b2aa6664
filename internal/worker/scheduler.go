package worker

import (
	"context"
	"errors"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/queue"

	"github.com/hibiken/asynq"
)

// SchedulerService 定时任务服务，按 cron 表达式投递每日批次创建任务
type SchedulerService struct {
	name      string
	scheduler *asynq.Scheduler
}

// NewSchedulerService 创建定时任务服务
func NewSchedulerService(cfg *config.Config) (*SchedulerService, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	opt := queue.BuildRedisOpt(&cfg.Queue)
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: cfg.Coupon.Location(),
	})
	entryID, err := scheduler.Register(cfg.Coupon.CreateCron, queue.NewBatchCreateTask(), asynq.Queue(queue.DefaultQueue))
	if err != nil {
		return nil, err
	}
	logger.Infow("scheduler_batch_create_registered", "cron", cfg.Coupon.CreateCron, "entry_id", entryID)
	return &SchedulerService{
		name:      "scheduler",
		scheduler: scheduler,
	}, nil
}

// Name 服务名称
func (s *SchedulerService) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start 启动服务
func (s *SchedulerService) Start(ctx context.Context) error {
	if s == nil || s.scheduler == nil {
		return errors.New("scheduler not initialized")
	}
	_ = ctx
	return s.scheduler.Run()
}

// Stop 停止服务
func (s *SchedulerService) Stop(ctx context.Context) error {
	if s == nil || s.scheduler == nil {
		return nil
	}
	_ = ctx
	s.scheduler.Shutdown()
	return nil
}
