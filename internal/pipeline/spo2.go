package pipeline

import (
	"biowatch-collector/internal/dsp"
)

const (
	spo2Epsilon = 1e-8
	spo2Min     = 85
	spo2Max     = 100
)

// SpO2Estimator ratio-of-ratios 血氧估计
// 只有一个真实通道时，把主通道延迟 ~20 ms 合成"红光"通道，
// 模拟波长相关的脉搏传导时间差。
type SpO2Estimator struct {
	lowpass      []dsp.Biquad
	delaySamples int
}

// NewSpO2Estimator 创建血氧估计器
// 0.5 Hz 低通分离出 DC 基线，减去得到 AC 脉动分量。
func NewSpO2Estimator(delaySec, sampleRateHz float64) *SpO2Estimator {
	d := int(delaySec * sampleRateHz)
	if d < 1 {
		d = 1
	}
	return &SpO2Estimator{
		lowpass:      dsp.Lowpass4(0.5, sampleRateHz),
		delaySamples: d,
	}
}

// Estimate 估计 SpO2 百分比，恒在 [85, 100] 内
// R = (AC_red/DC_red) / (AC_primary/DC_primary)，经验线性映射 110 − 25R。
// 分母有 ε 保护，平坦信号不会除零爆掉而是得到被钳制的值。
func (e *SpO2Estimator) Estimate(primary []float64) (float64, error) {
	if len(primary) <= e.delaySamples {
		return 0, dsp.ErrSignalTooShort
	}

	red := make([]float64, len(primary))
	for i := range red {
		if i < e.delaySamples {
			red[i] = primary[0]
		} else {
			red[i] = primary[i-e.delaySamples]
		}
	}

	acP, dcP, err := e.acdc(primary)
	if err != nil {
		return 0, err
	}
	acR, dcR, err := e.acdc(red)
	if err != nil {
		return 0, err
	}

	ratioP := acP / max64(dcP, spo2Epsilon)
	ratioR := acR / max64(dcR, spo2Epsilon)
	r := ratioR / max64(ratioP, spo2Epsilon)

	spo2 := 110 - 25*r
	if spo2 < spo2Min {
		spo2 = spo2Min
	}
	if spo2 > spo2Max {
		spo2 = spo2Max
	}
	return spo2, nil
}

// acdc 分离脉动分量和基线: AC 取低通残差的标准差，DC 取低通均值
func (e *SpO2Estimator) acdc(sig []float64) (ac, dc float64, err error) {
	low, err := dsp.FiltFilt(e.lowpass, sig)
	if err != nil {
		return 0, 0, err
	}
	resid := make([]float64, len(sig))
	for i := range sig {
		resid[i] = sig[i] - low[i]
	}
	return dsp.Std(resid), dsp.Mean(low), nil
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
