package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// PublishJSONToStream 发布 JSON 消息到 Redis Streams
// 消费端（看板、持久化）用消费者组各自读取。
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
}

// SetLatestJSON 写最新值键（带 TTL）
// 拉模式消费端（轮询看板）直接 GET 这个键拿最近一次指标。
func SetLatestJSON(ctx context.Context, client *redis.Client, key string, data interface{}, ttl time.Duration) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, string(jsonBytes), ttl).Err()
}
