package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// EventList Redis List 实现的 FIFO 事件缓冲。
// 尾部 RPUSH、头部 LPOP，与消费顺序一致；重试队列失败项重新回到尾部。
type EventList struct {
	client *redis.Client
	key    string
}

// NewEventList 创建事件缓冲
func NewEventList(client *redis.Client, key string) *EventList {
	return &EventList{client: client, key: key}
}

// Enabled 判断缓冲是否可用
func (l *EventList) Enabled() bool {
	return l != nil && l.client != nil
}

// Push 追加事件到队尾
func (l *EventList) Push(ctx context.Context, payload CouponIssuedPayload) error {
	if !l.Enabled() {
		return errors.New("event list disabled")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return l.client.RPush(ctx, l.key, body).Err()
}

// Pop 弹出队头事件，队列为空时 ok 为 false
func (l *EventList) Pop(ctx context.Context) (CouponIssuedPayload, bool, error) {
	var payload CouponIssuedPayload
	if !l.Enabled() {
		return payload, false, nil
	}
	body, err := l.client.LPop(ctx, l.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return payload, false, nil
		}
		return payload, false, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, false, err
	}
	return payload, true, nil
}

// Len 当前队列长度
func (l *EventList) Len(ctx context.Context) (int64, error) {
	if !l.Enabled() {
		return 0, nil
	}
	return l.client.LLen(ctx, l.key).Result()
}
