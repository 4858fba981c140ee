package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean 算术平均
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Std 总体标准差（除以 n，阈值类统计沿用信号处理惯例）
func Std(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := stat.Mean(x, nil)
	sum := 0.0
	for _, v := range x {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Median 中位数（不修改输入）
func Median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Max 最大值
func Max(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
