package dsp

import (
	"errors"
)

// ErrSignalTooShort 信号短于滤波器所需的稳定长度
var ErrSignalTooShort = errors.New("signal too short for zero-phase filtering")

// apply 直接 II 型转置结构单节滤波
func (b Biquad) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var z1, z2 float64
	for i, v := range x {
		out := b.B0*v + z1
		z1 = b.B1*v - b.A1*out + z2
		z2 = b.B2*v - b.A2*out
		y[i] = out
	}
	return y
}

// Filt 级联二阶节单向滤波
func Filt(sections []Biquad, x []float64) []float64 {
	y := append([]float64(nil), x...)
	for _, s := range sections {
		y = s.apply(y)
	}
	return y
}

// FiltFilt 零相位滤波：正向滤波后反向再滤一次
// 峰位精度直接决定心率精度，单向 IIR 的群延迟会系统性推移峰位，
// 因此所有带通/低通都走这条零相位路径。
// 两端先做奇对称延拓（padlen 个点）以抑制边界暂态。
func FiltFilt(sections []Biquad, x []float64) ([]float64, error) {
	padlen := 3 * (2*len(sections) + 1)
	if len(x) <= padlen {
		return nil, ErrSignalTooShort
	}

	ext := oddExtend(x, padlen)
	y := Filt(sections, ext)
	reverse(y)
	y = Filt(sections, y)
	reverse(y)

	return y[padlen : padlen+len(x)], nil
}

// oddExtend 奇对称延拓: 2*x[0]-x[pad..1] + x + 2*x[n-1]-x[n-2..n-1-pad]
func oddExtend(x []float64, padlen int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= padlen; i++ {
		ext = append(ext, 2*x[n-1]-x[n-1-i])
	}
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// Gradient 中心差分数值导数，保持数组长度（端点用单侧差分）
func Gradient(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = x[1] - x[0]
	out[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (x[i+1] - x[i-1]) / 2
	}
	return out
}

// MovingAverage 居中移动平均，保持长度和对齐（等价 convolve 'same'）
// 越界部分按零参与平均，分母恒为窗口长度。
func MovingAverage(x []float64, window int) []float64 {
	n := len(x)
	out := make([]float64, n)
	if window <= 0 || n == 0 {
		return out
	}
	left := (window - 1) / 2
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := i - left; j < i-left+window; j++ {
			if j >= 0 && j < n {
				sum += x[j]
			}
		}
		out[i] = sum / float64(window)
	}
	return out
}
