package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/http/handlers"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := handlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	issueRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:issue", redisPrefix),
		WindowSeconds: cfg.Security.IssueRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.IssueRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(c *gin.Context) {
		redisStatus := "disabled"
		if cache.Enabled() {
			redisStatus = "ok"
			if err := cache.Ping(c.Request.Context()); err != nil {
				redisStatus = "unreachable"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
	})

	api := r.Group("/api")
	{
		coupon := api.Group("/coupon")
		{
			coupon.POST("/issue",
				RateLimitMiddleware(cache.Client(), issueRule, KeyByUserHeader("X-User-Id")),
				handler.IssueCoupon,
			)
			coupon.GET("", handler.ListCoupons)
			coupon.GET("/count", handler.CountCoupons)
			coupon.GET("/info", handler.GetCouponInfo)
			coupon.POST("/use", handler.UseCoupon)
		}
	}

	return r
}
