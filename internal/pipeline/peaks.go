package pipeline

import (
	"sort"

	"biowatch-collector/internal/dsp"
)

// PeakDetector 在积分信号上找每搏一个峰
// 三个阈值都相对当前窗口自身统计计算，检测随信号幅度漂移自适应：
//   - 峰间最小间隔：防止同一搏被数两次（如重搏切迹）
//   - 最小峰高（相对窗口最大值）：滤掉低能量噪声鼓包
//   - 最小显著度（相对窗口标准差）：滤掉淹没在局部波动里的峰
type PeakDetector struct {
	minDistance      int
	heightFactor     float64
	prominenceFactor float64
}

// NewPeakDetector 创建峰检测器
func NewPeakDetector(minDistanceSec, sampleRateHz, heightFactor, prominenceFactor float64) *PeakDetector {
	d := int(minDistanceSec * sampleRateHz)
	if d < 1 {
		d = 1
	}
	return &PeakDetector{
		minDistance:      d,
		heightFactor:     heightFactor,
		prominenceFactor: prominenceFactor,
	}
}

// Detect 返回严格递增的峰位置，间隔不小于配置的最小距离
// 没有峰返回空集，不是错误。
func (d *PeakDetector) Detect(integrated []float64) []int {
	var candidates []int
	for i := 1; i < len(integrated)-1; i++ {
		if integrated[i] > integrated[i-1] && integrated[i] > integrated[i+1] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	minHeight := d.heightFactor * dsp.Max(integrated)
	tall := candidates[:0]
	for _, p := range candidates {
		if integrated[p] >= minHeight {
			tall = append(tall, p)
		}
	}
	if len(tall) == 0 {
		return nil
	}

	spaced := d.enforceDistance(integrated, tall)

	minProminence := d.prominenceFactor * dsp.Std(integrated)
	var peaks []int
	for _, p := range spaced {
		if prominence(integrated, p) >= minProminence {
			peaks = append(peaks, p)
		}
	}
	return peaks
}

// enforceDistance 按峰高优先的贪心保留，剔除间距不足的低峰
func (d *PeakDetector) enforceDistance(x []float64, candidates []int) []int {
	order := append([]int(nil), candidates...)
	sort.SliceStable(order, func(i, j int) bool {
		return x[order[i]] > x[order[j]]
	})

	rejected := make(map[int]bool, len(candidates))
	for _, p := range order {
		if rejected[p] {
			continue
		}
		for _, q := range candidates {
			if q == p || rejected[q] {
				continue
			}
			if abs(q-p) < d.minDistance {
				rejected[q] = true
			}
		}
	}

	var kept []int
	for _, p := range candidates {
		if !rejected[p] {
			kept = append(kept, p)
		}
	}
	return kept
}

// prominence 峰相对两侧基线的突出高度
// 向两侧走到更高的点或边界为止，取途中最低点中较高的一侧作为基线。
func prominence(x []float64, peak int) float64 {
	h := x[peak]

	minLeft := h
	for j := peak - 1; j >= 0; j-- {
		if x[j] > h {
			break
		}
		if x[j] < minLeft {
			minLeft = x[j]
		}
	}

	minRight := h
	for j := peak + 1; j < len(x); j++ {
		if x[j] > h {
			break
		}
		if x[j] < minRight {
			minRight = x[j]
		}
	}

	base := minLeft
	if minRight > base {
		base = minRight
	}
	return h - base
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
