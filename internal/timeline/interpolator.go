package timeline

import (
	"errors"

	"gonum.org/v1/gonum/interp"
)

// ErrTooFewSamples 已知采样不足，无法重建时间线（三次样条至少需要 4 个点）
var ErrTooFewSamples = errors.New("too few known samples to reconstruct timeline")

// minKnownSamples 三次样条拟合的最少已知点数
const minKnownSamples = 4

// InterpolateSeries 用自然三次样条补齐缺失位置，返回新的稠密序列
// 两端的缺失位置沿端点切线线性外推，而不是留空。
// 无线链路丢包是常态：如果把空洞直接丢掉，下游对时间敏感的峰检测会被破坏，
// 所以空洞必须补齐而不是跳过。
func InterpolateSeries(values []float64, present []bool) ([]float64, error) {
	n := len(values)
	known := 0
	for _, p := range present {
		if p {
			known++
		}
	}
	if known < minKnownSamples {
		return nil, ErrTooFewSamples
	}
	if known == n {
		return append([]float64(nil), values...), nil
	}

	xs := make([]float64, 0, known)
	ys := make([]float64, 0, known)
	for i := 0; i < n; i++ {
		if present[i] {
			xs = append(xs, float64(i))
			ys = append(ys, values[i])
		}
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(xs, ys); err != nil {
		return nil, err
	}

	first, last := xs[0], xs[len(xs)-1]
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if present[i] {
			out[i] = values[i]
			continue
		}
		x := float64(i)
		switch {
		case x < first:
			out[i] = spline.Predict(first) + spline.PredictDerivative(first)*(x-first)
		case x > last:
			out[i] = spline.Predict(last) + spline.PredictDerivative(last)*(x-last)
		default:
			out[i] = spline.Predict(x)
		}
	}
	return out, nil
}

// Interpolate 就地补齐时间线的两个通道
// 成功后时间线完全稠密（Present 全 true）。
func Interpolate(tl *Timeline) error {
	a, err := InterpolateSeries(tl.A, tl.Present)
	if err != nil {
		return err
	}
	b, err := InterpolateSeries(tl.B, tl.Present)
	if err != nil {
		return err
	}
	tl.A = a
	tl.B = b
	for i := range tl.Present {
		tl.Present[i] = true
	}
	return nil
}
