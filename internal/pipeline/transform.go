package pipeline

import (
	"biowatch-collector/internal/dsp"
)

// PulseTransform Pan-Tompkins 风格的非线性变换
// 导数 → 平方 → 移动窗口积分，把每次脉搏变成一个圆滑的鼓包。
// 三步都保持数组长度，积分居中对齐，不引入超前/滞后。
type PulseTransform struct {
	integrationSamples int
}

// NewPulseTransform 创建变换器
// integrationWindowSec 取成人脉宽（0.12–0.15 s）。
func NewPulseTransform(integrationWindowSec, sampleRateHz float64) *PulseTransform {
	n := int(integrationWindowSec * sampleRateHz)
	if n < 1 {
		n = 1
	}
	return &PulseTransform{integrationSamples: n}
}

// Apply 对带通信号做三步变换
// 导数把每次脉搏变成陡峭的正负尖峰；平方强制全正并不成比例地
// 压低小噪声；积分把尖峰抹成每搏一个鼓包，方便峰检测。
func (t *PulseTransform) Apply(filtered []float64) []float64 {
	deriv := dsp.Gradient(filtered)
	squared := make([]float64, len(deriv))
	for i, v := range deriv {
		squared[i] = v * v
	}
	return dsp.MovingAverage(squared, t.integrationSamples)
}
