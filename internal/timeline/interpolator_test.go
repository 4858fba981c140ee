package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/models"
)

func TestInterpolateSeries_FillsAllGaps(t *testing.T) {
	n := 40
	values := make([]float64, n)
	present := make([]bool, n)
	for i := 0; i < n; i++ {
		values[i] = math.Sin(float64(i) / 5)
		present[i] = true
	}
	// 挖掉中间一段
	for i := 15; i < 22; i++ {
		values[i] = 0
		present[i] = false
	}

	out, err := InterpolateSeries(values, present)
	require.NoError(t, err)
	require.Len(t, out, n)

	// 已知点保持原值，缺失点接近真实曲线
	for i := 0; i < n; i++ {
		truth := math.Sin(float64(i) / 5)
		if present[i] {
			assert.Equal(t, truth, out[i])
		} else {
			assert.InDelta(t, truth, out[i], 0.05, "position %d", i)
		}
	}
}

func TestInterpolateSeries_LinearDataExactEverywhere(t *testing.T) {
	// 线性数据上三次样条（含端点外推）应当精确还原
	n := 30
	values := make([]float64, n)
	present := make([]bool, n)
	for i := 0; i < n; i++ {
		values[i] = 2*float64(i) + 3
		present[i] = i >= 4 && i < 24 && i != 10 && i != 11
	}

	out, err := InterpolateSeries(values, present)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		assert.InDelta(t, 2*float64(i)+3, out[i], 1e-6, "position %d", i)
	}
}

func TestInterpolateSeries_TooFewKnownSamples(t *testing.T) {
	values := make([]float64, 20)
	present := make([]bool, 20)
	present[0], present[5], present[9] = true, true, true

	_, err := InterpolateSeries(values, present)
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestInterpolate_TimelineBecomesDense(t *testing.T) {
	// 对应丢包场景：10 包缺第 5 包，插值后零缺失
	asm := NewAssembler(16)
	for seq := uint64(0); seq < 10; seq++ {
		if seq == 5 {
			continue
		}
		samples := make([]models.Sample, 16)
		for i := range samples {
			idx := float64(int(seq)*16 + i)
			samples[i] = models.Sample{ChannelA: idx * 2, ChannelB: idx * 3}
		}
		asm.Add(&models.RawPacket{Sequence: seq, Samples: samples})
	}

	tl := asm.Timeline()
	require.NoError(t, Interpolate(tl))

	assert.Equal(t, 160, tl.Total())
	assert.Equal(t, 160, tl.KnownCount())

	// 80–95 由插值补齐而不是留空；两通道独立拟合
	for i := 80; i < 96; i++ {
		assert.InDelta(t, float64(i)*2, tl.A[i], 1e-6)
		assert.InDelta(t, float64(i)*3, tl.B[i], 1e-6)
	}
}
