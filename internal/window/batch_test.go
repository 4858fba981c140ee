package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/timeline"
)

func denseTimeline(n int) *timeline.Timeline {
	tl := &timeline.Timeline{
		A:       make([]float64, n),
		B:       make([]float64, n),
		Present: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		tl.A[i] = float64(i)
		tl.B[i] = float64(i) * 2
		tl.Present[i] = true
	}
	return tl
}

func TestBatchWindow_Trim(t *testing.T) {
	tl := denseTimeline(100)

	w, err := BatchWindow(tl, 10, 20)
	require.NoError(t, err)

	assert.Equal(t, 0, w.Index)
	assert.Equal(t, 10, w.Start)
	assert.Len(t, w.A, 70)
	assert.Equal(t, float64(10), w.A[0])
	assert.Equal(t, float64(79), w.A[69])
	assert.Equal(t, float64(20), w.B[0])
	assert.Nil(t, w.Present)
}

func TestBatchWindow_NegativeTrimClamped(t *testing.T) {
	tl := denseTimeline(10)

	w, err := BatchWindow(tl, -5, -5)
	require.NoError(t, err)
	assert.Len(t, w.A, 10)
}

func TestBatchWindow_Empty(t *testing.T) {
	tl := denseTimeline(10)

	_, err := BatchWindow(tl, 8, 5)
	assert.ErrorIs(t, err, ErrEmptyRecording)
}

func TestBatchWindow_CopiesData(t *testing.T) {
	tl := denseTimeline(10)

	w, err := BatchWindow(tl, 0, 0)
	require.NoError(t, err)

	w.A[0] = 999
	assert.Equal(t, float64(0), tl.A[0])
}
