package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"biowatch-collector/internal/models"
)

// ErrBadPacketSize 数据包长度与预期布局不符（传输层错误，丢弃并继续）
var ErrBadPacketSize = errors.New("packet size does not match expected layout")

// Codec 固件二进制数据包编解码
// 布局: 1 字节序号 + k × (uint32 IR + uint32 Red)，大端。
// k=16 时整包 129 字节。
type Codec struct {
	samplesPerPacket int
}

// NewCodec 创建编解码器
func NewCodec(samplesPerPacket int) *Codec {
	return &Codec{samplesPerPacket: samplesPerPacket}
}

// PacketSize 预期包长
func (c *Codec) PacketSize() int {
	return 1 + c.samplesPerPacket*8
}

// Decode 解码一个数据包，序号由调用方用 SequenceUnwrapper 解环后填入
func (c *Codec) Decode(data []byte, sequence uint64) (*models.RawPacket, error) {
	if len(data) != c.PacketSize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadPacketSize, len(data), c.PacketSize())
	}

	samples := make([]models.Sample, 0, c.samplesPerPacket)
	offset := 1
	for i := 0; i < c.samplesPerPacket; i++ {
		ir := binary.BigEndian.Uint32(data[offset : offset+4])
		red := binary.BigEndian.Uint32(data[offset+4 : offset+8])
		samples = append(samples, models.Sample{
			ChannelA: float64(ir),
			ChannelB: float64(red),
		})
		offset += 8
	}

	return &models.RawPacket{Sequence: sequence, Samples: samples}, nil
}

// RawSequence 包内的 1 字节原始序号
func (c *Codec) RawSequence(data []byte) (byte, error) {
	if len(data) != c.PacketSize() {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrBadPacketSize, len(data), c.PacketSize())
	}
	return data[0], nil
}

// SequenceUnwrapper 把固件的 mod-256 计数器解环成绝对序号
// 容忍 ±128 以内的乱序。组装器只认绝对序号，解环只发生在字节传输这一层。
type SequenceUnwrapper struct {
	initialized bool
	lastRaw     byte
	lastAbs     uint64
}

// Unwrap 把原始字节序号映射为绝对序号
func (u *SequenceUnwrapper) Unwrap(raw byte) uint64 {
	if !u.initialized {
		u.initialized = true
		u.lastRaw = raw
		u.lastAbs = uint64(raw)
		return u.lastAbs
	}

	d := int(raw) - int(u.lastRaw)
	if d > 128 {
		d -= 256
	} else if d < -128 {
		d += 256
	}

	abs := int64(u.lastAbs) + int64(d)
	if abs < 0 {
		abs = 0
	}

	u.lastRaw = raw
	u.lastAbs = uint64(abs)
	return u.lastAbs
}
