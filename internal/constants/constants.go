package constants

// Redis key 前缀常量
const (
	// KeyIssuedPrefix 用户领取去重标记 key 前缀（coupon:issued:<user_id>:<batch_code>）
	KeyIssuedPrefix = "coupon:issued"
	// KeyCountPrefix 批次发放计数器 key 前缀（coupon:count:<batch_code>）
	KeyCountPrefix = "coupon:count"
	// KeyPendingList 入队失败事件的兜底队列
	KeyPendingList = "coupon:pending"
	// KeyRetryList 落库失败事件的重试队列
	KeyRetryList = "coupon:pending:retry"
)

// 异步任务名称常量
const (
	// TaskCouponIssued 优惠券发放事件任务
	TaskCouponIssued = "coupon:issued_event"
	// TaskBatchCreate 每日批次创建任务
	TaskBatchCreate = "coupon:batch_create"
)

// QueueDefault 默认队列名称
const QueueDefault = "default"

// 发放模式常量
const (
	// IssueModeAsync 异步发放（Redis 准入 + 队列落库）
	IssueModeAsync = "async"
	// IssueModeSync 同步发放（数据库行锁）
	IssueModeSync = "sync"
)
