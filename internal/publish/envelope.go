package publish

import (
	"time"

	"biowatch-collector/internal/models"
)

// Envelope 对外发布的指标记录：设备/会话/时间戳信封 + 扁平快照字段
// 所有出口（UDP 广播、Redis、WebSocket、MQTT、入库）共用同一个编码。
type Envelope struct {
	Device          string `json:"device"`
	SessionID       string `json:"session_id"`
	Timestamp       string `json:"timestamp"`
	UnixTimestampMs int64  `json:"unix_timestamp_ms"`
	models.MetricsSnapshot
}

// NewEnvelope 包装一个快照
func NewEnvelope(device, sessionID string, snap *models.MetricsSnapshot) *Envelope {
	now := time.Now()
	return &Envelope{
		Device:          device,
		SessionID:       sessionID,
		Timestamp:       now.Format("2006-01-02T15:04:05.000"),
		UnixTimestampMs: now.UnixMilli(),
		MetricsSnapshot: *snap,
	}
}
