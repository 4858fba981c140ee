package publish

import (
	"encoding/json"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// UDPBroadcaster 指标 JSON 的 UDP 广播出口
// 手表模拟器时代的协议保留下来，看板和录制端都监听这个端口。
type UDPBroadcaster struct {
	conn   *net.UDPConn
	addr   string
	logger *zap.Logger
}

// NewUDPBroadcaster 创建广播出口
func NewUDPBroadcaster(addr string, logger *zap.Logger) (*UDPBroadcaster, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve broadcast address %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broadcast address %s: %w", addr, err)
	}
	return &UDPBroadcaster{conn: conn, addr: addr, logger: logger}, nil
}

// Send 广播一条指标记录
func (b *UDPBroadcaster) Send(env *Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics envelope: %w", err)
	}
	if _, err := b.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send metrics over UDP: %w", err)
	}

	b.logger.Debug("Metrics broadcast",
		zap.String("addr", b.addr),
		zap.Int("bytes", len(payload)),
	)
	return nil
}

// Close 关闭出口
func (b *UDPBroadcaster) Close() error {
	return b.conn.Close()
}
