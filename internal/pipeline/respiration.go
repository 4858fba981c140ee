package pipeline

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// 典型呼吸频率范围（Hz）
const (
	respBandLowHz  = 0.1
	respBandHighHz = 0.5
)

// RespirationEstimator 基于频谱的呼吸率估计
// 带通信号的 0.1–0.5 Hz 残余分量由呼吸对脉搏幅度的调制产生。
type RespirationEstimator struct {
	sampleRateHz float64
}

// NewRespirationEstimator 创建呼吸率估计器
func NewRespirationEstimator(sampleRateHz float64) *RespirationEstimator {
	return &RespirationEstimator{sampleRateHz: sampleRateHz}
}

// Estimate 返回呼吸率（次/分）
// 取幅度谱在呼吸频带内的最大值对应频率 ×60。
// 窗口太短、频带内没有任何频点时返回 0（上报为 0，不是错误）。
func (e *RespirationEstimator) Estimate(bandpassed []float64) float64 {
	if len(bandpassed) < 2 {
		return 0
	}

	fft := fourier.NewFFT(len(bandpassed))
	coeffs := fft.Coefficients(nil, bandpassed)

	bestMag := -1.0
	bestFreq := 0.0
	for i, c := range coeffs {
		freq := fft.Freq(i) * e.sampleRateHz
		if freq <= respBandLowHz || freq >= respBandHighHz {
			continue
		}
		if mag := cmplx.Abs(c); mag > bestMag {
			bestMag = mag
			bestFreq = freq
		}
	}
	if bestMag < 0 {
		return 0
	}
	return bestFreq * 60
}
