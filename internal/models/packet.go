package models

// RawPacket 传感器原始数据包
// Sequence 是单调扩展的绝对序号（传输层已对 1 字节计数器做了解环）。
// 同一序号重复到达允许覆盖（last-wins），乱序到达按绝对位置落位。
type RawPacket struct {
	Sequence uint64
	Samples  []Sample
}

// Sample 单个采样点（双通道 ADC 读数）
// ChannelA 是主通道（IR），ChannelB 是副通道（Red）。
type Sample struct {
	ChannelA float64
	ChannelB float64
}

// Window 稠密时间线的一个不可变切片
// Present 为 nil 表示窗口已经稠密；否则 Present[i]=false 的位置
// 需要由流水线在处理前插值补齐。
type Window struct {
	Index   int       // 窗口序号（会话内递增）
	Start   int       // 在时间线上的绝对起始采样位置
	A       []float64 // 主通道
	B       []float64 // 副通道
	Present []bool
	Partial bool // 会话停止时冲刷出的不完整窗口
}

// KnownCount 已知采样数
func (w *Window) KnownCount() int {
	if w.Present == nil {
		return len(w.A)
	}
	n := 0
	for _, p := range w.Present {
		if p {
			n++
		}
	}
	return n
}
