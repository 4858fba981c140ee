package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/database"
	"biowatch-collector/internal/discovery"
	"biowatch-collector/internal/ingest"
	"biowatch-collector/internal/models"
	mqttwrap "biowatch-collector/internal/mqtt"
	"biowatch-collector/internal/pipeline"
	"biowatch-collector/internal/publish"
	rediscommon "biowatch-collector/internal/redis"
	"biowatch-collector/internal/repository"
	"biowatch-collector/internal/session"
	"biowatch-collector/internal/window"
)

// CollectorService 采集服务
// 两条独立活动并发运行：数据包接入（低延迟，传输回调驱动）和
// 窗口处理（周期性，计算密集）。两者只通过窗口缓冲交接。
type CollectorService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *rediscommon.Client
	mqttClient  *mqttwrap.Client

	buffer    *window.Buffer
	sess      *session.Manager
	processor *pipeline.Processor

	udpListener   *ingest.UDPListener
	mqttTransport *ingest.MQTTTransport

	broadcaster *publish.UDPBroadcaster
	redisPub    *publish.RedisPublisher
	hub         *publish.Hub
	repo        *repository.ReadingRepository
	disc        *discovery.Service
}

// NewCollectorService 创建采集服务
func NewCollectorService(cfg *config.Config, logger *zap.Logger) (*CollectorService, error) {
	s := &CollectorService{
		config: cfg,
		logger: logger,
		buffer: window.NewBuffer(),
	}
	s.sess = session.NewManager(cfg, s.buffer, logger)
	s.processor = pipeline.NewProcessor(cfg, logger)

	codec := ingest.NewCodec(cfg.Sensor.SamplesPerPacket)

	udpListener, err := ingest.NewUDPListener(cfg.Transport.UDPListenAddr, codec, s.ingestPacket, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create UDP listener: %w", err)
	}
	s.udpListener = udpListener

	if cfg.Transport.MQTTEnabled {
		mqttClient, err := mqttwrap.NewClient(&cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		s.mqttClient = mqttClient
		s.mqttTransport = ingest.NewMQTTTransport(mqttClient, cfg, codec, s.ingestPacket, s.handleControl, logger)
	}

	if cfg.Publish.UDPEnabled {
		broadcaster, err := publish.NewUDPBroadcaster(cfg.Publish.UDPBroadcastAddr, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics broadcaster: %w", err)
		}
		s.broadcaster = broadcaster
	}

	if cfg.Publish.RedisEnabled {
		redisClient := rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisClient = redisClient
		s.redisPub = publish.NewRedisPublisher(
			redisClient,
			cfg.Publish.MetricsStream,
			cfg.Publish.LatestKey,
			time.Duration(cfg.Publish.LatestTTLSec)*time.Second,
			logger,
		)
	}

	if cfg.WebSocket.Enabled {
		s.hub = publish.NewHub(logger)
	}

	if cfg.Store.Enabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		s.repo = repository.NewReadingRepository(db, logger)
	}

	return s, nil
}

// Start 启动服务，阻塞到上下文取消或组件出错
func (s *CollectorService) Start(ctx context.Context) error {
	s.logger.Info("Starting collector service",
		zap.String("device", s.config.Sensor.DeviceName),
		zap.Float64("sample_rate_hz", s.config.Sensor.SampleRateHz),
		zap.Int("window_samples", s.config.WindowSamples()),
		zap.Bool("mqtt_transport", s.config.Transport.MQTTEnabled),
		zap.Bool("store_enabled", s.config.Store.Enabled),
	)

	if s.config.Discovery.Enabled {
		port, err := listenPort(s.config.Transport.UDPListenAddr)
		if err != nil {
			return err
		}
		disc, err := discovery.Register(port, s.config.Sensor.DeviceName, s.logger)
		if err != nil {
			// 发现失败不致命：手表端仍可直接配置地址
			s.logger.Warn("Failed to register mDNS service", zap.Error(err))
		} else {
			s.disc = disc
		}
	}

	if s.mqttTransport != nil {
		if err := s.mqttTransport.Start(); err != nil {
			return err
		}
	}

	if s.config.Session.Autostart {
		if _, err := s.sess.Begin(); err != nil {
			return fmt.Errorf("failed to autostart session: %w", err)
		}
	}

	errCh := make(chan error, 2)
	go func() {
		if err := s.udpListener.Start(ctx); err != nil {
			errCh <- err
		}
	}()
	if s.hub != nil {
		go func() {
			if err := s.hub.Serve(ctx, s.config.WebSocket.ListenAddr); err != nil {
				errCh <- err
			}
		}()
	}
	go s.processLoop(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop 停止服务
// 强制结束会话并处理完最后冲刷出来的窗口，然后放掉外部资源。
func (s *CollectorService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping collector service")

	s.sess.Shutdown()
	for {
		w, ok := s.buffer.TryTake()
		if !ok {
			break
		}
		s.handleWindow(ctx, w)
	}

	if s.mqttTransport != nil {
		s.mqttTransport.Stop()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	if s.disc != nil {
		s.disc.Shutdown()
	}
	if s.redisClient != nil {
		if err := rediscommon.Close(s.redisClient); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Failed to close database", zap.Error(err))
		}
	}

	s.logger.Info("Collector service stopped",
		zap.Int("windows_evicted", s.buffer.Evicted()),
		zap.Int64("bad_packets", s.udpListener.BadPackets()),
	)
	return nil
}

// BeginSession 对外的会话开始入口
func (s *CollectorService) BeginSession() (string, error) {
	return s.sess.Begin()
}

// RequestStopSession 对外的会话停止入口（受最短时长规则约束）
func (s *CollectorService) RequestStopSession() error {
	return s.sess.RequestStop()
}

// processLoop 窗口处理循环
func (s *CollectorService) processLoop(ctx context.Context) {
	for {
		w, err := s.buffer.Take(ctx)
		if err != nil {
			return
		}
		s.handleWindow(ctx, w)
	}
}

// handleWindow 处理一个窗口并把快照交给所有出口
// 单个出口失败只记录，不影响别的出口，也不污染后续窗口。
func (s *CollectorService) handleWindow(ctx context.Context, w *models.Window) {
	snap := s.processor.Process(w)
	env := publish.NewEnvelope(s.config.Sensor.DeviceName, s.sess.ID(), snap)

	if s.broadcaster != nil {
		if err := s.broadcaster.Send(env); err != nil {
			s.logger.Error("Failed to broadcast metrics", zap.Error(err))
		}
	}
	if s.redisPub != nil {
		if err := s.redisPub.Publish(ctx, env); err != nil {
			s.logger.Error("Failed to publish metrics to redis", zap.Error(err))
		}
	}
	if s.hub != nil || s.mqttClient != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			s.logger.Error("Failed to marshal metrics envelope", zap.Error(err))
		} else {
			if s.hub != nil {
				s.hub.Broadcast(payload)
			}
			if s.mqttClient != nil {
				if err := s.mqttClient.Publish(s.config.Publish.MQTTMetricsTopic, s.config.MQTT.QoS, false, payload); err != nil {
					s.logger.Error("Failed to publish metrics to MQTT", zap.Error(err))
				}
			}
		}
	}
	if s.repo != nil {
		if err := s.repo.InsertReading(env); err != nil {
			s.logger.Error("Failed to store reading", zap.Error(err))
		}
	}
}

// ingestPacket 传输层回调
func (s *CollectorService) ingestPacket(pkt *models.RawPacket) {
	if err := s.sess.IngestPacket(pkt); err != nil {
		// 没有会话时的数据包属于正常情况（固件还在推流）
		s.logger.Debug("Packet dropped, no active session",
			zap.Uint64("sequence", pkt.Sequence),
		)
	}
}

// handleControl MQTT 控制命令入口
func (s *CollectorService) handleControl(cmd string) error {
	switch cmd {
	case "start":
		id, err := s.sess.Begin()
		if errors.Is(err, session.ErrSessionRunning) {
			s.logger.Info("Start command ignored, session already running")
			return nil
		}
		if err == nil {
			s.logger.Info("Session started by control command", zap.String("session_id", id))
		}
		return err
	case "stop":
		err := s.sess.RequestStop()
		if errors.Is(err, session.ErrSessionTooShort) || errors.Is(err, session.ErrSessionNotRunning) {
			// 规则内的拒绝已经记录过日志
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown control command: %q", cmd)
}

func listenPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse listen address %s: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse listen port %s: %w", portStr, err)
	}
	return port, nil
}
