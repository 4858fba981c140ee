package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/dsp"
)

func TestSpO2Estimator_PulsatileSignal(t *testing.T) {
	raw := make([]float64, 2000)
	for i := range raw {
		raw[i] = 50000 + 100*math.Sin(2*math.Pi*1.2*float64(i)/200)
	}

	e := NewSpO2Estimator(0.02, 200)
	spo2, err := e.Estimate(raw)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, spo2, 85.0)
	assert.LessOrEqual(t, spo2, 100.0)
}

func TestSpO2Estimator_FlatSignalClamped(t *testing.T) {
	raw := make([]float64, 2000)
	for i := range raw {
		raw[i] = 50000
	}

	e := NewSpO2Estimator(0.02, 200)
	spo2, err := e.Estimate(raw)
	require.NoError(t, err)

	// AC=0 → R=0 → 110 钳到上限，而不是除零
	assert.Equal(t, 100.0, spo2)
}

func TestSpO2Estimator_SignalTooShort(t *testing.T) {
	e := NewSpO2Estimator(0.02, 200)

	_, err := e.Estimate(make([]float64, 3))
	assert.ErrorIs(t, err, dsp.ErrSignalTooShort)
}

func TestRespirationEstimator_DominantBreathingFrequency(t *testing.T) {
	// 0.3 Hz 调制 @ 200 Hz，20 秒 → 频率分辨率 0.05 Hz，恰好落在频点上
	sig := make([]float64, 4000)
	for i := range sig {
		sig[i] = math.Sin(2 * math.Pi * 0.3 * float64(i) / 200)
	}

	e := NewRespirationEstimator(200)
	assert.InDelta(t, 18.0, e.Estimate(sig), 0.5)
}

func TestRespirationEstimator_NoEnergyInBand(t *testing.T) {
	e := NewRespirationEstimator(200)

	// 太短：呼吸频带内没有任何频点
	assert.Equal(t, 0.0, e.Estimate(make([]float64, 10)))
	assert.Equal(t, 0.0, e.Estimate(nil))
}
