package dsp

import (
	"math"
)

// Biquad 二阶节（系数已按 a0 归一）
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// 4 阶 Butterworth 的两级 Q 值: 1/(2cos(π/8)), 1/(2cos(3π/8))
var butterworth4Q = [2]float64{0.5411961001461970, 1.3065629648763765}

// Lowpass4 设计 4 阶 Butterworth 低通（两个级联二阶节）
func Lowpass4(cutoffHz, sampleRateHz float64) []Biquad {
	sections := make([]Biquad, 0, 2)
	for _, q := range butterworth4Q {
		sections = append(sections, lowpassBiquad(cutoffHz, sampleRateHz, q))
	}
	return sections
}

// Highpass4 设计 4 阶 Butterworth 高通
func Highpass4(cutoffHz, sampleRateHz float64) []Biquad {
	sections := make([]Biquad, 0, 2)
	for _, q := range butterworth4Q {
		sections = append(sections, highpassBiquad(cutoffHz, sampleRateHz, q))
	}
	return sections
}

// Bandpass4 设计 4 阶带通：4 阶高通（下限）级联 4 阶低通（上限）
// 通带等价于 butter(4, [low, high], 'band') 的实现目标：隔离心动频带。
func Bandpass4(lowHz, highHz, sampleRateHz float64) []Biquad {
	sections := Highpass4(lowHz, sampleRateHz)
	return append(sections, Lowpass4(highHz, sampleRateHz)...)
}

func lowpassBiquad(cutoffHz, sampleRateHz, q float64) Biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	return Biquad{
		B0: (1 - cosW0) / 2 / a0,
		B1: (1 - cosW0) / a0,
		B2: (1 - cosW0) / 2 / a0,
		A1: -2 * cosW0 / a0,
		A2: (1 - alpha) / a0,
	}
}

func highpassBiquad(cutoffHz, sampleRateHz, q float64) Biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	return Biquad{
		B0: (1 + cosW0) / 2 / a0,
		B1: -(1 + cosW0) / a0,
		B2: (1 + cosW0) / 2 / a0,
		A1: -2 * cosW0 / a0,
		A2: (1 - alpha) / a0,
	}
}
