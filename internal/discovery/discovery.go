package discovery

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType mDNS 服务类型，手表端按这个类型找采集器
	ServiceType = "_biowatch._udp"
	// ServiceDomain mDNS 域
	ServiceDomain = "local."
)

// Service mDNS 服务通告
// 替代原方案里按设备名扫描的发现方式：采集器把自己的 UDP 数据口
// 通告到局域网，手表/模拟器不用写死地址。
type Service struct {
	server *zeroconf.Server
	logger *zap.Logger
}

// Register 注册服务通告
func Register(port int, deviceName string, logger *zap.Logger) (*Service, error) {
	hostname, _ := os.Hostname()
	instance := fmt.Sprintf("%s-biowatch", hostname)

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		ServiceDomain,
		port,
		[]string{
			"version=1.0",
			fmt.Sprintf("device=%s", deviceName),
		},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logger.Info("mDNS service registered",
		zap.String("instance", instance),
		zap.String("type", ServiceType),
		zap.Int("port", port),
	)
	return &Service{server: server, logger: logger}, nil
}

// Shutdown 注销通告
func (s *Service) Shutdown() {
	if s.server != nil {
		s.server.Shutdown()
		s.logger.Info("mDNS service unregistered")
	}
}
