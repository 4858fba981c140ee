package window

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biowatch-collector/internal/models"
)

func TestBuffer_PutTake(t *testing.T) {
	buf := NewBuffer()
	w := &models.Window{Index: 0}

	assert.False(t, buf.Put(w))

	got, err := buf.Take(context.Background())
	require.NoError(t, err)
	assert.Same(t, w, got)
}

func TestBuffer_LatestWins(t *testing.T) {
	buf := NewBuffer()
	w0 := &models.Window{Index: 0}
	w1 := &models.Window{Index: 1}

	assert.False(t, buf.Put(w0))
	// 未消费的旧窗口被新窗口顶掉
	assert.True(t, buf.Put(w1))

	got, err := buf.Take(context.Background())
	require.NoError(t, err)
	assert.Same(t, w1, got)
	assert.Equal(t, 1, buf.Evicted())
}

func TestBuffer_OrderPreservedWhenConsumed(t *testing.T) {
	buf := NewBuffer()
	for i := 0; i < 5; i++ {
		buf.Put(&models.Window{Index: i})
		w, err := buf.Take(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, w.Index)
	}
	assert.Equal(t, 0, buf.Evicted())
}

func TestBuffer_TakeBlocksUntilCancel(t *testing.T) {
	buf := NewBuffer()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := buf.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestBuffer_TryTake(t *testing.T) {
	buf := NewBuffer()

	_, ok := buf.TryTake()
	assert.False(t, ok)

	buf.Put(&models.Window{Index: 3})
	w, ok := buf.TryTake()
	require.True(t, ok)
	assert.Equal(t, 3, w.Index)
}
