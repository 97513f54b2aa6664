package handlers

import (
	"strconv"
	"strings"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// IssueCoupon 领取当日优惠券
func (h *Handler) IssueCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.IssueService.Issue(c.Request.Context(), userID); err != nil {
		respondIssueError(c, err)
		return
	}
	response.Created(c, "coupon issued")
}

// ListCoupons 我的未核销优惠券
func (h *Handler) ListCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	coupons, err := h.CouponService.ListCoupons(userID)
	if err != nil {
		logger.Warnw("handler_list_coupons_failed", "user_id", userID, "error", err)
		response.Internal(c, "list coupons failed")
		return
	}
	response.Success(c, gin.H{"coupons": coupons})
}

// CountCoupons 我的未核销数量
func (h *Handler) CountCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.CouponService.CountCoupons(userID)
	if err != nil {
		logger.Warnw("handler_count_coupons_failed", "user_id", userID, "error", err)
		response.Internal(c, "count coupons failed")
		return
	}
	response.Success(c, gin.H{"count": count})
}

// GetCouponInfo 批次详情
func (h *Handler) GetCouponInfo(c *gin.Context) {
	batchID, ok := parseUintQuery(c, "coupon_id")
	if !ok {
		return
	}
	batch, err := h.CouponService.GetBatchInfo(batchID)
	if err != nil {
		respondUseError(c, err)
		return
	}
	response.Success(c, batch)
}

// useCouponRequest 核销请求
type useCouponRequest struct {
	CouponID  uint `json:"coupon_id" binding:"required"`
	FundingID uint `json:"funding_id" binding:"required"`
}

// UseCoupon 核销优惠券
func (h *Handler) UseCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req useCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "invalid request body")
		return
	}
	if err := h.CouponService.UseCoupon(userID, req.CouponID, req.FundingID); err != nil {
		respondUseError(c, err)
		return
	}
	response.Success(c, nil)
}

func parseUintQuery(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		response.BadRequest(c, response.CodeInvalidParams, "missing "+key)
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		response.BadRequest(c, response.CodeInvalidParams, "invalid "+key)
		return 0, false
	}
	return uint(value), true
}
