package pipeline

import (
	"biowatch-collector/internal/dsp"
)

// Conditioner 信号调理：去直流 + 心动频带带通
// 带通用零相位（正反向）滤波实现，避免相位失真挪动峰位。
type Conditioner struct {
	bandpass []dsp.Biquad
}

// NewConditioner 创建调理器
// lowHz 去掉呼吸和基线漂移等慢趋势，highHz 去掉肌电/工频/抖动等高频噪声，
// 剩下的就是干净的心动脉搏分量。
func NewConditioner(lowHz, highHz, sampleRateHz float64) *Conditioner {
	return &Conditioner{
		bandpass: dsp.Bandpass4(lowHz, highHz, sampleRateHz),
	}
}

// Condition 调理一个窗口
// 窗口短于滤波器稳定长度时返回 dsp.ErrSignalTooShort。
func (c *Conditioner) Condition(sig []float64) ([]float64, error) {
	mean := dsp.Mean(sig)
	ac := make([]float64, len(sig))
	for i, v := range sig {
		ac[i] = v - mean
	}
	return dsp.FiltFilt(c.bandpass, ac)
}
