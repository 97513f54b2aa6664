package app

import (
	"errors"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/router"
	"github.com/coupon-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// Worker 与定时调度
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(cfg, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)

			schedulerService, err := worker.NewSchedulerService(cfg)
			if err != nil {
				return nil, err
			}
			services = append(services, schedulerService)
		} else {
			logger.Warnw("app_worker_skip_queue_disabled", "mode", mode)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
