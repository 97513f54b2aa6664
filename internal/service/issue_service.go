package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coupon-next/internal/admission"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/coupon"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// IssuedEventEnqueuer 发放事件生产端
type IssuedEventEnqueuer interface {
	EnqueueCouponIssued(payload queue.CouponIssuedPayload, opts ...asynq.Option) error
}

// IssuedEventBuffer 发放事件兜底缓冲（入队失败时暂存，由清扫任务补写）
type IssuedEventBuffer interface {
	Enabled() bool
	Push(ctx context.Context, payload queue.CouponIssuedPayload) error
}

// IssueService 发放入口服务
// 准入判定是热路径上唯一的串行化点；准入成功即向调用方承诺发放，
// 落库走异步链路，调用方不能假设成功响应后立即可读。
type IssueService struct {
	db         *gorm.DB
	counter    admission.Counter
	batchRepo  repository.CouponBatchRepository
	issuedRepo repository.IssuedCouponRepository
	enqueuer   IssuedEventEnqueuer
	pending    IssuedEventBuffer
	quantity   int
	openHour   int
	mode       string
	loc        *time.Location
	now        func() time.Time
}

// NewIssueService 创建发放服务
func NewIssueService(
	db *gorm.DB,
	counter admission.Counter,
	batchRepo repository.CouponBatchRepository,
	issuedRepo repository.IssuedCouponRepository,
	enqueuer IssuedEventEnqueuer,
	pending IssuedEventBuffer,
	cfg config.CouponConfig,
) *IssueService {
	quantity := cfg.DailyQuantity
	if quantity <= 0 {
		quantity = 100
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.IssueMode))
	if mode != constants.IssueModeSync {
		mode = constants.IssueModeAsync
	}
	return &IssueService{
		db:         db,
		counter:    counter,
		batchRepo:  batchRepo,
		issuedRepo: issuedRepo,
		enqueuer:   enqueuer,
		pending:    pending,
		quantity:   quantity,
		openHour:   cfg.OpenHour,
		mode:       mode,
		loc:        cfg.Location(),
		now:        time.Now,
	}
}

// Issue 发放入口，按配置选择主路径
func (s *IssueService) Issue(ctx context.Context, userID uint) error {
	if s.mode == constants.IssueModeSync {
		return s.IssueSync(userID)
	}
	return s.IssueAsync(ctx, userID)
}

// IssueAsync 高吞吐主路径：原子准入 + 异步落库
func (s *IssueService) IssueAsync(ctx context.Context, userID uint) error {
	now := s.now().In(s.loc)
	// 开抢前直接拒绝，不触碰计数器
	if now.Hour() < s.openHour {
		return ErrNotYetOpen
	}

	code := coupon.TodayCode(now)
	ttl := coupon.UntilEndOfDay(now)
	result, err := s.counter.TryAdmit(ctx, coupon.DedupKey(userID, code), coupon.CountKey(code), s.quantity, ttl)
	if err != nil {
		// 超时或失败一律按未准入处理，由调用方重试
		logger.Errorw("issue_admission_failed", "user_id", userID, "batch_code", code, "error", err)
		return err
	}
	logger.Debugw("issue_admission_result", "user_id", userID, "batch_code", code, "result", result.String())

	switch result {
	case admission.AlreadyAdmitted:
		return ErrAlreadyIssued
	case admission.Exhausted:
		return ErrOutOfStock
	}

	s.emitIssued(ctx, queue.CouponIssuedPayload{
		UserID:    userID,
		BatchCode: code,
		IssuedAt:  now,
	})
	return nil
}

// emitIssued 发出发放事件。准入成功后的响应是不可撤销的承诺，
// 入队失败依次降级到兜底缓冲、同步直写，事件不允许丢失。
func (s *IssueService) emitIssued(ctx context.Context, ev queue.CouponIssuedPayload) {
	var err error
	if s.enqueuer != nil {
		err = s.enqueuer.EnqueueCouponIssued(ev)
		if err == nil {
			return
		}
	} else {
		err = queue.ErrQueueDisabled
	}
	logger.Warnw("issue_event_enqueue_failed", "user_id", ev.UserID, "batch_code", ev.BatchCode, "error", err)

	if s.pending != nil && s.pending.Enabled() {
		if perr := s.pending.Push(ctx, ev); perr == nil {
			return
		} else {
			logger.Errorw("issue_event_buffer_failed", "user_id", ev.UserID, "batch_code", ev.BatchCode, "error", perr)
		}
	}

	if perr := s.PersistIssued(ev); perr != nil {
		logger.Errorw("issue_event_persist_fallback_failed", "user_id", ev.UserID, "batch_code", ev.BatchCode, "error", perr)
	}
}

// PersistIssued 发放事件落库。消费端、清扫任务和同步兜底共用这一条
// 幂等写入路径：重复事件靠 (user_id, batch_id) 唯一约束吸收。
func (s *IssueService) PersistIssued(ev queue.CouponIssuedPayload) error {
	batch, err := s.batchRepo.GetByCode(ev.BatchCode)
	if err != nil {
		return err
	}
	if batch == nil {
		// 准入成立意味着批次应当存在，查不到按可重试的数据不一致处理
		return ErrBatchNotFound
	}

	issued := &models.IssuedCoupon{
		BatchID:   batch.ID,
		UserID:    ev.UserID,
		CreatedAt: ev.IssuedAt,
	}
	if err := s.issuedRepo.Create(issued); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Debugw("persist_issued_duplicate_ignored", "user_id", ev.UserID, "batch_code", ev.BatchCode)
			return nil
		}
		return err
	}
	return nil
}

// IssueSync 同步备选路径：批次行锁内完成整个检查-插入序列。
// 吞吐换简单，不变量与主路径一致。
func (s *IssueService) IssueSync(userID uint) error {
	now := s.now().In(s.loc)
	if now.Hour() < s.openHour {
		return ErrNotYetOpen
	}
	code := coupon.TodayCode(now)

	return s.db.Transaction(func(tx *gorm.DB) error {
		batch, err := s.batchRepo.WithTx(tx).GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if batch == nil {
			return ErrBatchNotFound
		}
		if !batch.IsIssuable(now) {
			return ErrBatchExpired
		}

		issuedRepo := s.issuedRepo.WithTx(tx)
		exists, err := issuedRepo.ExistsByUserAndBatch(userID, batch.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyIssued
		}

		count, err := issuedRepo.CountByBatch(batch.ID)
		if err != nil {
			return err
		}
		if count >= int64(batch.TotalQuantity) {
			return ErrOutOfStock
		}

		return issuedRepo.Create(&models.IssuedCoupon{
			BatchID:   batch.ID,
			UserID:    userID,
			CreatedAt: now,
		})
	})
}
