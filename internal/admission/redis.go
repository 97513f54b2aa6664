package admission

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// tryAdmitScript 在 Redis 单线程内一次性完成去重、计数、递增三步，
// 中途不可能被其它请求穿插。返回 -1 = 已领取，0 = 库存耗尽，1 = 准入。
var tryAdmitScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return -1
end
local count = tonumber(redis.call("GET", KEYS[2]) or "0")
if count >= tonumber(ARGV[1]) then
	return 0
end
redis.call("INCR", KEYS[2])
redis.call("SET", KEYS[1], "1")
redis.call("EXPIRE", KEYS[1], ARGV[2])
redis.call("EXPIRE", KEYS[2], ARGV[2])
return 1
`)

// RedisCounter 基于 Redis Lua 脚本的准入计数器
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter 创建 Redis 准入计数器
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// TryAdmit 执行准入脚本
func (c *RedisCounter) TryAdmit(ctx context.Context, dedupKey, counterKey string, quantity int, ttl time.Duration) (Result, error) {
	if c == nil || c.client == nil {
		return Exhausted, errors.New("redis counter not initialized")
	}
	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	value, err := tryAdmitScript.Run(ctx, c.client, []string{dedupKey, counterKey}, quantity, ttlSeconds).Int64()
	if err != nil {
		return Exhausted, err
	}
	switch value {
	case -1:
		return AlreadyAdmitted, nil
	case 0:
		return Exhausted, nil
	default:
		return Admitted, nil
	}
}

// InitBatchCounter SETNX 播种计数器
func (c *RedisCounter) InitBatchCounter(ctx context.Context, counterKey string, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return errors.New("redis counter not initialized")
	}
	return c.client.SetNX(ctx, counterKey, "0", ttl).Err()
}
