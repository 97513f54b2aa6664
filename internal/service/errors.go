package service

import "errors"

// 发放核心业务错误：同步返回给调用方，属于最终判定，调用方无需重试。
var (
	// ErrNotYetOpen 未到当日开抢时间
	ErrNotYetOpen = errors.New("issue not yet open")
	// ErrAlreadyIssued 用户当日已领取
	ErrAlreadyIssued = errors.New("coupon already issued")
	// ErrOutOfStock 当日批次已发完
	ErrOutOfStock = errors.New("coupon out of stock")
	// ErrBatchNotFound 批次不存在
	ErrBatchNotFound = errors.New("coupon batch not found")
	// ErrBatchExpired 批次不在发放窗口内
	ErrBatchExpired = errors.New("coupon batch expired")
	// ErrCouponNotFound 持券记录不存在或已核销
	ErrCouponNotFound = errors.New("coupon not found")
)
