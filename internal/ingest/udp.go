package ingest

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"biowatch-collector/internal/models"
)

// PacketHandler 解码成功的数据包回调
type PacketHandler func(*models.RawPacket)

// UDPListener UDP 数据包传输
// 每个 datagram 是一个固件数据包；长度不符的 datagram 记为传输错误
// 并丢弃，采集继续。
type UDPListener struct {
	conn       *net.UDPConn
	codec      *Codec
	unwrapper  SequenceUnwrapper
	handler    PacketHandler
	logger     *zap.Logger
	badPackets atomic.Int64
}

// NewUDPListener 创建并绑定 UDP 监听
func NewUDPListener(addr string, codec *Codec, handler PacketHandler, logger *zap.Logger) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &UDPListener{
		conn:    conn,
		codec:   codec,
		handler: handler,
		logger:  logger,
	}, nil
}

// Addr 实际绑定地址（监听端口写 0 时由系统分配）
func (l *UDPListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Start 读取循环，阻塞到上下文取消
func (l *UDPListener) Start(ctx context.Context) error {
	l.logger.Info("UDP packet listener started",
		zap.String("addr", l.conn.LocalAddr().String()),
		zap.Int("packet_size", l.codec.PacketSize()),
	)

	// 取消时关闭连接解除 ReadFromUDP 阻塞
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("UDP packet listener stopped",
					zap.Int64("bad_packets", l.badPackets.Load()),
				)
				return nil
			}
			return fmt.Errorf("failed to read UDP packet: %w", err)
		}

		data := buf[:n]
		raw, err := l.codec.RawSequence(data)
		if err != nil {
			l.badPackets.Add(1)
			l.logger.Error("Rejected malformed packet",
				zap.Int("size", n),
				zap.Error(err),
			)
			continue
		}

		pkt, err := l.codec.Decode(data, l.unwrapper.Unwrap(raw))
		if err != nil {
			l.badPackets.Add(1)
			l.logger.Error("Failed to decode packet", zap.Error(err))
			continue
		}
		l.handler(pkt)
	}
}

// BadPackets 被拒绝的包数
func (l *UDPListener) BadPackets() int64 {
	return l.badPackets.Load()
}
