package handlers

import "github.com/coupon-next/internal/provider"

// Handler 优惠券接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
