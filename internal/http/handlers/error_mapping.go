package handlers

import (
	"errors"
	"net/http"

	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target     error
	httpStatus int
	code       string
	message    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMessage string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.httpStatus, rule.code, rule.message)
			return
		}
	}
	response.Internal(c, fallbackMessage)
}

var issueErrorRules = []mappedHandlerError{
	{target: service.ErrNotYetOpen, httpStatus: http.StatusBadRequest, code: response.CodeNotYetOpen, message: "coupon issue not yet open"},
	{target: service.ErrAlreadyIssued, httpStatus: http.StatusBadRequest, code: response.CodeAlreadyIssued, message: "coupon already issued today"},
	{target: service.ErrOutOfStock, httpStatus: http.StatusNotFound, code: response.CodeOutOfStock, message: "coupon out of stock"},
	{target: service.ErrBatchNotFound, httpStatus: http.StatusNotFound, code: response.CodeBatchNotFound, message: "coupon batch not found"},
	{target: service.ErrBatchExpired, httpStatus: http.StatusBadRequest, code: response.CodeBatchExpired, message: "coupon batch expired"},
}

var useErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, httpStatus: http.StatusNotFound, code: response.CodeCouponMissing, message: "coupon not found or already used"},
	{target: service.ErrBatchExpired, httpStatus: http.StatusBadRequest, code: response.CodeBatchExpired, message: "coupon batch expired"},
	{target: service.ErrBatchNotFound, httpStatus: http.StatusNotFound, code: response.CodeBatchNotFound, message: "coupon batch not found"},
}

func respondIssueError(c *gin.Context, err error) {
	respondWithMappedError(c, err, issueErrorRules, "coupon issue failed")
}

func respondUseError(c *gin.Context, err error) {
	respondWithMappedError(c, err, useErrorRules, "coupon use failed")
}
