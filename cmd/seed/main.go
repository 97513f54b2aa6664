package main

import (
	"context"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/provider"
)

// 手动创建当天批次，定时调度之外的运维入口
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	container := provider.NewContainer(cfg)
	batch, err := container.BatchService.CreateTodayBatch(context.Background())
	if err != nil {
		stdLog.Fatalf("批次创建失败: %v", err)
	}
	stdLog.Printf("批次就绪: code=%d quantity=%d discount=%s", batch.Code, batch.TotalQuantity, batch.DiscountAmount.String())
}
