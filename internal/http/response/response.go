package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，HTTP 状态码与 http_status 字段保持一致
type Response struct {
	Code       string      `json:"code"`        // 业务码
	HTTPStatus int         `json:"http_status"` // HTTP 状态码
	Message    string      `json:"message"`     // 提示消息
	Data       interface{} `json:"data,omitempty"`
}

// Created 201 响应，发放成功专用
func Created(c *gin.Context, message string) {
	c.JSON(http.StatusCreated, Response{
		Code:       CodeOK,
		HTTPStatus: http.StatusCreated,
		Message:    message,
	})
}

// Success 200 响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:       CodeOK,
		HTTPStatus: http.StatusOK,
		Message:    "success",
		Data:       data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code string, message string) {
	c.JSON(httpStatus, Response{
		Code:       code,
		HTTPStatus: httpStatus,
		Message:    message,
		Data:       attachRequestID(c, nil),
	})
}

// BadRequest 400 响应
func BadRequest(c *gin.Context, code string, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// NotFound 404 响应
func NotFound(c *gin.Context, code string, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Unauthorized 401 响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Internal 500 响应
func Internal(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeInternal, message)
}

func attachRequestID(c *gin.Context, data interface{}) interface{} {
	requestID := ""
	if c != nil {
		if value, ok := c.Get("request_id"); ok {
			if id, ok := value.(string); ok {
				requestID = id
			}
		}
	}
	if requestID == "" {
		return data
	}
	if data == nil {
		return gin.H{"request_id": requestID}
	}
	if v, ok := data.(gin.H); ok {
		if _, exists := v["request_id"]; !exists {
			v["request_id"] = requestID
		}
		return v
	}
	return data
}
