package ingest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	mqttwrap "biowatch-collector/internal/mqtt"
)

// ControlHandler 控制命令回调（"start" / "stop"）
type ControlHandler func(command string) error

// MQTTTransport MQTT 数据包传输
// 数据主题携带与 UDP 相同的二进制数据包；控制主题携带 start/stop
// 命令，对应固件 'S'/'P' 协议的远程等价物。
type MQTTTransport struct {
	client    *mqttwrap.Client
	cfg       *config.Config
	codec     *Codec
	unwrapper SequenceUnwrapper
	handler   PacketHandler
	control   ControlHandler
	logger    *zap.Logger
}

// NewMQTTTransport 创建 MQTT 传输
func NewMQTTTransport(
	client *mqttwrap.Client,
	cfg *config.Config,
	codec *Codec,
	handler PacketHandler,
	control ControlHandler,
	logger *zap.Logger,
) *MQTTTransport {
	return &MQTTTransport{
		client:  client,
		cfg:     cfg,
		codec:   codec,
		handler: handler,
		control: control,
		logger:  logger,
	}
}

// Start 订阅数据主题和控制主题
func (t *MQTTTransport) Start() error {
	qos := t.cfg.MQTT.QoS
	if err := t.client.Subscribe(t.cfg.Transport.DataTopic, qos, t.handleData); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}
	if err := t.client.Subscribe(t.cfg.Transport.ControlTopic, qos, t.handleControl); err != nil {
		return fmt.Errorf("failed to subscribe to control topic: %w", err)
	}

	t.logger.Info("MQTT transport started",
		zap.String("data_topic", t.cfg.Transport.DataTopic),
		zap.String("control_topic", t.cfg.Transport.ControlTopic),
	)
	return nil
}

// Stop 取消订阅
func (t *MQTTTransport) Stop() {
	if err := t.client.Unsubscribe(t.cfg.Transport.DataTopic, t.cfg.Transport.ControlTopic); err != nil {
		t.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	t.logger.Info("MQTT transport stopped")
}

// handleData 处理二进制数据包消息
func (t *MQTTTransport) handleData(topic string, payload []byte) error {
	raw, err := t.codec.RawSequence(payload)
	if err != nil {
		t.logger.Error("Rejected malformed packet",
			zap.String("topic", topic),
			zap.Int("size", len(payload)),
			zap.Error(err),
		)
		return err
	}

	pkt, err := t.codec.Decode(payload, t.unwrapper.Unwrap(raw))
	if err != nil {
		return err
	}
	t.handler(pkt)
	return nil
}

// handleControl 处理 start/stop 命令
func (t *MQTTTransport) handleControl(topic string, payload []byte) error {
	cmd := strings.ToLower(strings.TrimSpace(string(payload)))
	switch cmd {
	case "start", "stop":
		t.logger.Info("Control command received",
			zap.String("topic", topic),
			zap.String("command", cmd),
		)
		return t.control(cmd)
	default:
		return fmt.Errorf("unknown control command: %q", cmd)
	}
}
