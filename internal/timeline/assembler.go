package timeline

import (
	"biowatch-collector/internal/models"
)

// Timeline 稠密可索引的采样时间线，覆盖 [0, Total())
// Present[i]=false 表示该位置尚未被任何数据包写入（丢包留下的空洞）。
type Timeline struct {
	A       []float64
	B       []float64
	Present []bool
}

// Total 时间线总长度 = (max_sequence_seen + 1) × samples_per_packet
func (t *Timeline) Total() int {
	return len(t.A)
}

// KnownCount 已写入的位置数
func (t *Timeline) KnownCount() int {
	n := 0
	for _, p := range t.Present {
		if p {
			n++
		}
	}
	return n
}

// Assembler 数据包组装器
// 按绝对位置 s*k+i 落位采样，与到达顺序无关：乱序无害，重复覆盖（last-wins）。
// 观察到新的最大序号时扩展时间线，新开的容量以缺失标记回填。
// 非并发安全，由会话持有者做单写者串行化。
type Assembler struct {
	samplesPerPacket int
	tl               Timeline
}

// NewAssembler 创建组装器
func NewAssembler(samplesPerPacket int) *Assembler {
	return &Assembler{samplesPerPacket: samplesPerPacket}
}

// Add 写入一个数据包
// 返回实际落位的采样数。映射位置超出当前总量的包只可能在总量被下修时出现，
// 而总量取自运行最大序号，永不下修，因此静默丢弃即可。
func (a *Assembler) Add(pkt *models.RawPacket) int {
	required := (int(pkt.Sequence) + 1) * a.samplesPerPacket
	if required > len(a.tl.A) {
		a.grow(required)
	}

	base := int(pkt.Sequence) * a.samplesPerPacket
	written := 0
	for i, s := range pkt.Samples {
		if i >= a.samplesPerPacket {
			break
		}
		idx := base + i
		if idx >= len(a.tl.A) {
			break
		}
		a.tl.A[idx] = s.ChannelA
		a.tl.B[idx] = s.ChannelB
		a.tl.Present[idx] = true
		written++
	}
	return written
}

// Total 当前时间线总长度
func (a *Assembler) Total() int {
	return a.tl.Total()
}

// KnownCount 已知采样数
func (a *Assembler) KnownCount() int {
	return a.tl.KnownCount()
}

// Slice 拷贝 [start, end) 区间，end 截断到当前总量
// 返回的切片与内部时间线不共享存储，窗口由此保持不可变。
func (a *Assembler) Slice(start, end int) (aCh, bCh []float64, present []bool) {
	if end > len(a.tl.A) {
		end = len(a.tl.A)
	}
	if start < 0 || start >= end {
		return nil, nil, nil
	}
	aCh = append([]float64(nil), a.tl.A[start:end]...)
	bCh = append([]float64(nil), a.tl.B[start:end]...)
	present = append([]bool(nil), a.tl.Present[start:end]...)
	return aCh, bCh, present
}

// Timeline 拷贝完整时间线（批处理模式整段插值用）
func (a *Assembler) Timeline() *Timeline {
	aCh, bCh, present := a.Slice(0, len(a.tl.A))
	return &Timeline{A: aCh, B: bCh, Present: present}
}

func (a *Assembler) grow(total int) {
	for len(a.tl.A) < total {
		a.tl.A = append(a.tl.A, 0)
		a.tl.B = append(a.tl.B, 0)
		a.tl.Present = append(a.tl.Present, false)
	}
}
