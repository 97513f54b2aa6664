package provider

import (
	"github.com/coupon-next/internal/admission"
	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Counter     admission.Counter
	PendingList *queue.EventList
	RetryList   *queue.EventList

	// Repositories
	BatchRepo  repository.CouponBatchRepository
	IssuedRepo repository.IssuedCouponRepository
	UsageRepo  repository.CouponUsageRepository

	// Services
	BatchService  *service.BatchService
	IssueService  *service.IssueService
	CouponService *service.CouponService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 准入计数器与事件缓冲
	c.initAdmission()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化 Services
	c.initServices()

	return c
}

// initAdmission Redis 可用时使用 Lua 脚本计数器，否则退化为进程内计数器。
// 退化形态只适合单实例部署。
func (c *Container) initAdmission() {
	if cache.Enabled() {
		client := cache.Client()
		c.Counter = admission.NewRedisCounter(client)
		c.PendingList = queue.NewEventList(client, cache.Key(constants.KeyPendingList))
		c.RetryList = queue.NewEventList(client, cache.Key(constants.KeyRetryList))
		return
	}
	logger.Warnw("provider_admission_fallback_memory")
	c.Counter = admission.NewMemoryCounter()
}

func (c *Container) initRepositories() {
	db := models.DB
	c.BatchRepo = repository.NewCouponBatchRepository(db)
	c.IssuedRepo = repository.NewIssuedCouponRepository(db)
	c.UsageRepo = repository.NewCouponUsageRepository(db)
}

func (c *Container) initServices() {
	db := models.DB
	c.BatchService = service.NewBatchService(c.BatchRepo, c.Counter, c.Config.Coupon)

	var enqueuer service.IssuedEventEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}
	var pending service.IssuedEventBuffer
	if c.PendingList != nil {
		pending = c.PendingList
	}
	c.IssueService = service.NewIssueService(db, c.Counter, c.BatchRepo, c.IssuedRepo, enqueuer, pending, c.Config.Coupon)
	c.CouponService = service.NewCouponService(db, c.BatchRepo, c.IssuedRepo, c.UsageRepo, c.Config.Coupon)
}
