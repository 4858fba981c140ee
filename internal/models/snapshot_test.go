package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRRIntervals_PadsToCapacity(t *testing.T) {
	var snap MetricsSnapshot
	snap.SetRRIntervals([]float64{810.5, 820.2, 790.9})

	assert.Equal(t, 810, snap.RRIntervals[0])
	assert.Equal(t, 820, snap.RRIntervals[1])
	assert.Equal(t, 790, snap.RRIntervals[2])
	for i := 3; i < RRCapacity; i++ {
		assert.Equal(t, 0, snap.RRIntervals[i], "position %d should be zero-padded", i)
	}
}

func TestSetRRIntervals_KeepsMostRecent(t *testing.T) {
	rr := make([]float64, RRCapacity+4)
	for i := range rr {
		rr[i] = float64(700 + i)
	}

	var snap MetricsSnapshot
	snap.SetRRIntervals(rr)

	// 超出容量时保留最近的 RRCapacity 个
	assert.Equal(t, 704, snap.RRIntervals[0])
	assert.Equal(t, 704+RRCapacity-1, snap.RRIntervals[RRCapacity-1])
}

func TestSnapshotJSON_FixedWidthRRList(t *testing.T) {
	snap := MetricsSnapshot{Valid: true, HRBpm: 72}
	snap.SetRRIntervals([]float64{833, 834})

	data, err := json.Marshal(&snap)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Contains(t, decoded, "valid")
	assert.Contains(t, decoded, "hr_bpm")
	assert.Contains(t, decoded, "rr_intervals")

	// 消费端依赖定宽的 RR 列表
	rr, ok := decoded["rr_intervals"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rr, RRCapacity)
}
