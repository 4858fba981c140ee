package ingest

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePacket(t *testing.T, rawSeq byte, k int, base uint32) []byte {
	t.Helper()
	data := make([]byte, 1+k*8)
	data[0] = rawSeq
	for i := 0; i < k; i++ {
		binary.BigEndian.PutUint32(data[1+i*8:], base+uint32(i))
		binary.BigEndian.PutUint32(data[5+i*8:], base+uint32(i)+1000)
	}
	return data
}

func TestCodec_Decode(t *testing.T) {
	c := NewCodec(16)
	assert.Equal(t, 129, c.PacketSize())

	data := encodePacket(t, 42, 16, 90000)
	pkt, err := c.Decode(data, 298)
	require.NoError(t, err)

	assert.Equal(t, uint64(298), pkt.Sequence)
	require.Len(t, pkt.Samples, 16)
	assert.Equal(t, float64(90000), pkt.Samples[0].ChannelA)
	assert.Equal(t, float64(91000), pkt.Samples[0].ChannelB)
	assert.Equal(t, float64(90015), pkt.Samples[15].ChannelA)
	assert.Equal(t, float64(91015), pkt.Samples[15].ChannelB)
}

func TestCodec_BadSize(t *testing.T) {
	c := NewCodec(16)

	_, err := c.Decode(make([]byte, 100), 0)
	assert.ErrorIs(t, err, ErrBadPacketSize)

	_, err = c.Decode(nil, 0)
	assert.ErrorIs(t, err, ErrBadPacketSize)

	_, err = c.RawSequence(make([]byte, 130))
	assert.ErrorIs(t, err, ErrBadPacketSize)
}

func TestCodec_RawSequence(t *testing.T) {
	c := NewCodec(16)

	seq, err := c.RawSequence(encodePacket(t, 7, 16, 0))
	require.NoError(t, err)
	assert.Equal(t, byte(7), seq)
}

func TestSequenceUnwrapper_Monotonic(t *testing.T) {
	var u SequenceUnwrapper

	for raw := 0; raw < 300; raw++ {
		want := uint64(raw)
		got := u.Unwrap(byte(raw % 256))
		assert.Equal(t, want, got, "raw %d", raw)
	}
}

func TestSequenceUnwrapper_WrapAround(t *testing.T) {
	var u SequenceUnwrapper

	assert.Equal(t, uint64(254), u.Unwrap(254))
	assert.Equal(t, uint64(255), u.Unwrap(255))
	// 255 → 0 跨环
	assert.Equal(t, uint64(256), u.Unwrap(0))
	assert.Equal(t, uint64(257), u.Unwrap(1))
}

func TestSequenceUnwrapper_ReorderTolerated(t *testing.T) {
	var u SequenceUnwrapper

	u.Unwrap(10)
	u.Unwrap(11)
	// 迟到包：回退而不是误判成跨环
	assert.Equal(t, uint64(9), u.Unwrap(9))
	assert.Equal(t, uint64(12), u.Unwrap(12))
}

func TestSequenceUnwrapper_ReorderAcrossWrap(t *testing.T) {
	var u SequenceUnwrapper

	u.Unwrap(254)
	u.Unwrap(255)
	u.Unwrap(0) // abs 256
	// 迟到的 255 应映射回 255，不是 511
	assert.Equal(t, uint64(255), u.Unwrap(255))
	assert.Equal(t, uint64(257), u.Unwrap(1))
}

func TestSequenceUnwrapper_NeverNegative(t *testing.T) {
	var u SequenceUnwrapper

	u.Unwrap(0)
	// 比第一包还早的迟到包钳到 0，绝对序号不会变负
	assert.Equal(t, uint64(0), u.Unwrap(255))
	assert.Equal(t, uint64(1), u.Unwrap(0))
}
