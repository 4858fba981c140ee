package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRCleaner_TooFewPeaks(t *testing.T) {
	c := NewRRCleaner(200, 0.6, 1.67)

	assert.Nil(t, c.Clean(nil))
	assert.Nil(t, c.Clean([]int{100}))
	assert.Nil(t, c.Clean([]int{100, 200}))
	// 2 个间期不够做中位数过滤
	assert.Nil(t, c.Clean([]int{100, 200, 300}))
}

func TestRRCleaner_UniformRhythm(t *testing.T) {
	c := NewRRCleaner(200, 0.6, 1.67)

	// 峰间距 160 采样 @ 200 Hz = 800 ms
	rr := c.Clean([]int{0, 160, 320, 480, 640})
	assert.Equal(t, []float64{800, 800, 800, 800}, rr)
}

func TestRRCleaner_MissedBeatRejected(t *testing.T) {
	c := NewRRCleaner(200, 0.6, 1.67)

	// 漏检一搏产生的翻倍间期 (1600 ms > 1.67×800)
	rr := c.Clean([]int{0, 160, 320, 640, 800, 960})
	assert.Equal(t, []float64{800, 800, 800, 800}, rr)
}

func TestRRCleaner_EarlyDetectionRejected(t *testing.T) {
	c := NewRRCleaner(200, 0.6, 1.67)

	// 重搏切迹误检出的对半间期 (400 ms < 0.6×800)
	rr := c.Clean([]int{0, 160, 240, 400, 560})
	assert.Equal(t, []float64{800, 800, 800}, rr)
}

func TestRRCleaner_BandIsRelativeToMedian(t *testing.T) {
	c := NewRRCleaner(1000, 0.6, 1.67)

	// 采样率 1000 Hz 时峰位直接就是毫秒
	rr := c.Clean([]int{0, 600, 1200, 1800, 2400, 3100})
	// 700 ms 在 (360, 1002) 内，保留
	assert.Equal(t, []float64{600, 600, 600, 600, 700}, rr)
}
