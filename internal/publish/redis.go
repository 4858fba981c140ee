package publish

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	rediscommon "biowatch-collector/internal/redis"
)

// RedisPublisher 指标的 Redis 出口
// 每条快照写两处：最新值键（带 TTL，拉模式消费）和指标流（推模式消费）。
type RedisPublisher struct {
	client    *rediscommon.Client
	stream    string
	latestKey string
	latestTTL time.Duration
	logger    *zap.Logger
}

// NewRedisPublisher 创建 Redis 出口
func NewRedisPublisher(client *rediscommon.Client, stream, latestKey string, latestTTL time.Duration, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:    client,
		stream:    stream,
		latestKey: latestKey,
		latestTTL: latestTTL,
		logger:    logger,
	}
}

// Publish 发布一条指标记录
func (p *RedisPublisher) Publish(ctx context.Context, env *Envelope) error {
	if err := rediscommon.SetLatestJSON(ctx, p.client, p.latestKey, env, p.latestTTL); err != nil {
		return fmt.Errorf("failed to set latest metrics key: %w", err)
	}

	streamID, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, env)
	if err != nil {
		return fmt.Errorf("failed to publish metrics to stream: %w", err)
	}

	p.logger.Debug("Metrics published to Redis",
		zap.String("stream", p.stream),
		zap.String("stream_id", streamID),
		zap.Int("window_index", env.WindowIndex),
	)
	return nil
}
