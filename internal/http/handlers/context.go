package handlers

import (
	"strconv"
	"strings"

	"github.com/coupon-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

const userIDHeader = "X-User-Id"

// getUserID 从网关透传的请求头解析用户 ID。
// 请求头由前置网关鉴权后注入，服务本身不做身份校验。
func getUserID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		response.Unauthorized(c, "missing "+userIDHeader+" header")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Unauthorized(c, "invalid "+userIDHeader+" header")
		return 0, false
	}
	return uint(id), true
}
