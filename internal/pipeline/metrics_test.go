package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/models"
)

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0, Confidence(0))
	assert.Equal(t, 0, Confidence(1)) // 9-15 钳到 0
	assert.Equal(t, 3, Confidence(2))
	assert.Equal(t, 30, Confidence(5))
	assert.Equal(t, 75, Confidence(10))
	assert.Equal(t, 100, Confidence(13)) // 102 钳到 100
	assert.Equal(t, 100, Confidence(50))

	for n := 1; n < 30; n++ {
		assert.GreaterOrEqual(t, Confidence(n), Confidence(n-1))
	}
}

func testSynthesizer() *Synthesizer {
	return NewSynthesizer(NewSpO2Estimator(0.02, 200), NewRespirationEstimator(200))
}

func pulseLikeSignals(n int) (raw, conditioned []float64) {
	raw = make([]float64, n)
	conditioned = make([]float64, n)
	for i := 0; i < n; i++ {
		ac := 100 * math.Sin(2*math.Pi*1.2*float64(i)/200)
		raw[i] = 50000 + ac
		conditioned[i] = ac
	}
	return raw, conditioned
}

func TestSynthesizer_NoIntervalsStaysInvalid(t *testing.T) {
	raw, conditioned := pulseLikeSignals(400)
	snap := &models.MetricsSnapshot{}

	err := testSynthesizer().Synthesize(snap, raw, conditioned, nil)
	require.NoError(t, err)

	assert.False(t, snap.Valid)
	assert.Equal(t, 0, snap.ConfidencePct)
	assert.Equal(t, 0, snap.HRBpm)
	assert.Equal(t, 0.0, snap.SpO2Pct)
}

func TestSynthesizer_FullSnapshot(t *testing.T) {
	raw, conditioned := pulseLikeSignals(2000)
	rrMs := []float64{800, 820, 790, 810, 800, 805, 795, 815, 800, 810}

	snap := &models.MetricsSnapshot{WindowIndex: 7}
	err := testSynthesizer().Synthesize(snap, raw, conditioned, rrMs)
	require.NoError(t, err)

	assert.True(t, snap.Valid)
	assert.Equal(t, 75, snap.ConfidencePct)
	// median(rr) = 802.5 ms
	assert.Equal(t, 75, snap.HRBpm)
	assert.Equal(t, 802, snap.MeanRRMs)
	assert.Greater(t, snap.RMSSDMs, 0.0)
	assert.Greater(t, snap.SDNNMs, 0.0)
	assert.GreaterOrEqual(t, snap.SpO2Pct, 85.0)
	assert.LessOrEqual(t, snap.SpO2Pct, 100.0)
	assert.GreaterOrEqual(t, snap.PerfusionIndexX10, 0)
	assert.GreaterOrEqual(t, snap.RespirationBpm, 0.0)
	assert.Equal(t, 800, snap.RRIntervals[0])
	assert.Equal(t, 810, snap.RRIntervals[9])
	assert.Equal(t, 0, snap.RRIntervals[10])
}

func TestRMSSD(t *testing.T) {
	assert.Equal(t, 0.0, rmssd(nil))
	assert.Equal(t, 0.0, rmssd([]float64{800}))
	// 差值恒为 10 → RMSSD = 10
	assert.InDelta(t, 10.0, rmssd([]float64{800, 810, 820, 830}), 1e-9)
}
