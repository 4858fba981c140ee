package publish

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/models"
)

func TestNewEnvelope(t *testing.T) {
	snap := &models.MetricsSnapshot{
		Valid:         true,
		HRBpm:         72,
		ConfidencePct: 84,
		WindowIndex:   5,
	}

	before := time.Now().UnixMilli()
	env := NewEnvelope("BioWatch v1", "session-abc", snap)
	after := time.Now().UnixMilli()

	assert.Equal(t, "BioWatch v1", env.Device)
	assert.Equal(t, "session-abc", env.SessionID)
	assert.Equal(t, 72, env.HRBpm)
	assert.Equal(t, 5, env.WindowIndex)
	assert.GreaterOrEqual(t, env.UnixTimestampMs, before)
	assert.LessOrEqual(t, env.UnixTimestampMs, after)
	assert.NotEmpty(t, env.Timestamp)
}

func TestEnvelope_JSONShape(t *testing.T) {
	snap := &models.MetricsSnapshot{
		Valid:   true,
		HRBpm:   72,
		SpO2Pct: 97.5,
	}
	snap.SetRRIntervals([]float64{833, 830})

	payload, err := json.Marshal(NewEnvelope("BioWatch v1", "session-abc", snap))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	// 快照字段与信封字段编码在同一层
	assert.Equal(t, "BioWatch v1", decoded["device"])
	assert.Equal(t, "session-abc", decoded["session_id"])
	assert.Equal(t, true, decoded["valid"])
	assert.Equal(t, float64(72), decoded["hr_bpm"])
	assert.Equal(t, 97.5, decoded["spo2_pct"])

	// rr 列表定宽 16，不足补零
	rr, ok := decoded["rr_intervals"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rr, 16)
	assert.Equal(t, float64(833), rr[0])
	assert.Equal(t, float64(0), rr[2])
}

func TestEnvelope_SnapshotIsCopied(t *testing.T) {
	snap := &models.MetricsSnapshot{HRBpm: 72}
	env := NewEnvelope("d", "s", snap)

	snap.HRBpm = 99
	assert.Equal(t, 72, env.HRBpm)
}
