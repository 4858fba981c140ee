package pipeline

import (
	"biowatch-collector/internal/dsp"
)

// RRCleaner 把峰位差转成毫秒 RR 间期并剔除离群值
// 单遍中位数相对过滤：同时去掉过早检测（对半间期）和漏搏（翻倍间期），
// 不做迭代重估计。
type RRCleaner struct {
	sampleRateHz float64
	lowFactor    float64
	highFactor   float64
}

// NewRRCleaner 创建 RR 清洗器
// 过滤区间 [lowFactor×median, highFactor×median] 是可调配置。
func NewRRCleaner(sampleRateHz, lowFactor, highFactor float64) *RRCleaner {
	return &RRCleaner{
		sampleRateHz: sampleRateHz,
		lowFactor:    lowFactor,
		highFactor:   highFactor,
	}
}

// Clean 返回清洗后的 RR 间期（毫秒）
// 少于 2 个峰产不出间期；少于 3 个间期时中位数过滤没有意义，
// 全部视为不可靠，返回空。
func (c *RRCleaner) Clean(peaks []int) []float64 {
	if len(peaks) < 2 {
		return nil
	}

	rrMs := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		rrMs = append(rrMs, float64(peaks[i]-peaks[i-1])/c.sampleRateHz*1000)
	}
	if len(rrMs) < 3 {
		return nil
	}

	median := dsp.Median(rrMs)
	low := c.lowFactor * median
	high := c.highFactor * median

	var clean []float64
	for _, rr := range rrMs {
		if rr > low && rr < high {
			clean = append(clean, rr)
		}
	}
	return clean
}
