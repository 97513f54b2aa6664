package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/coupon-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Coupon    CouponConfig    `mapstructure:"coupon"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// SecurityConfig 接口防护配置
type SecurityConfig struct {
	IssueRateLimit RateLimitConfig `mapstructure:"issue_rate_limit"`
}

// RateLimitConfig 固定窗口限流参数
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// CouponConfig 每日优惠券发放策略配置
type CouponConfig struct {
	Timezone       string `mapstructure:"timezone"`        // 发放时区
	DailyQuantity  int    `mapstructure:"daily_quantity"`  // 每日发放数量
	DiscountAmount string `mapstructure:"discount_amount"` // 面额
	OpenHour       int    `mapstructure:"open_hour"`       // 每日开抢时间（整点）
	IssueMode      string `mapstructure:"issue_mode"`      // async / sync
	CreateCron     string `mapstructure:"create_cron"`     // 批次创建 cron 表达式
}

// Location 解析发放时区，解析失败回退到本地时区
func (c CouponConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		logger.Warnw("coupon_timezone_invalid_fallback_local", "timezone", c.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// SchedulerConfig 队列清扫任务配置
type SchedulerConfig struct {
	DrainIntervalMS int `mapstructure:"drain_interval_ms"` // 兜底队列清扫间隔
	RetryIntervalMS int `mapstructure:"retry_interval_ms"` // 重试队列清扫间隔
}

// DrainInterval 兜底队列清扫间隔
func (c SchedulerConfig) DrainInterval() time.Duration {
	if c.DrainIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.DrainIntervalMS) * time.Millisecond
}

// RetryInterval 重试队列清扫间隔
func (c SchedulerConfig) RetryInterval() time.Duration {
	if c.RetryIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.RetryIntervalMS) * time.Millisecond
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "app.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/coupon.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "cp")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-User-Id",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("coupon.timezone", "Asia/Seoul")
	viper.SetDefault("coupon.daily_quantity", 100)
	viper.SetDefault("coupon.discount_amount", "1000")
	viper.SetDefault("coupon.open_hour", 10)
	viper.SetDefault("coupon.issue_mode", "async")
	viper.SetDefault("coupon.create_cron", "0 9 * * *")
	viper.SetDefault("scheduler.drain_interval_ms", 100)
	viper.SetDefault("scheduler.retry_interval_ms", 500)
	viper.SetDefault("security.issue_rate_limit.window_seconds", 1)
	viper.SetDefault("security.issue_rate_limit.max_requests", 5)

	// 环境变量支持
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
