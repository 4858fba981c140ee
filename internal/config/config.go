package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 采集服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 传感器物理参数（必须与固件一致）
	Sensor struct {
		DeviceName       string  // 设备名称，如 "BioWatch v1"
		SampleRateHz     float64 // 采样率（Hz）
		SamplesPerPacket int     // 每个数据包的采样数
	}

	// 窗口划分配置
	Window struct {
		Seconds        float64 // 窗口时长（秒）
		OverlapSeconds float64 // 窗口重叠（秒），当前仅支持 0（tumbling）
	}

	// 信号处理流水线参数
	Pipeline struct {
		BandpassLowHz        float64 // 带通下限（心动频带）
		BandpassHighHz       float64 // 带通上限
		IntegrationWindowSec float64 // 移动积分窗口（成人脉宽 0.12–0.15s）
		MinPeakDistanceSec   float64 // 峰间最小间隔
		PeakHeightFactor     float64 // 峰高阈值（相对窗口最大值）
		PeakProminenceFactor float64 // 峰显著度阈值（相对窗口标准差）
		RRBandLowFactor      float64 // RR 区间下限（相对中位数）
		RRBandHighFactor     float64 // RR 区间上限（相对中位数）
		SpO2DelaySec         float64 // 合成红光通道的时移
		TrimStartSec         float64 // 批处理模式起始裁剪（连接伪影）
		TrimEndSec           float64 // 批处理模式末尾裁剪
	}

	// 会话生命周期配置
	Session struct {
		MinDurationSec int  // 最短会话时长（秒），提前的停止请求被丢弃
		Autostart      bool // 服务启动时自动开始会话
	}

	// 数据包接入配置
	Transport struct {
		UDPListenAddr string // UDP 数据包监听地址
		MQTTEnabled   bool   // 是否启用 MQTT 传输（数据+控制主题）
		DataTopic     string // 二进制数据包主题
		ControlTopic  string // 控制主题（start/stop 命令）
	}

	// 指标发布配置
	Publish struct {
		UDPBroadcastAddr string // 指标 JSON 广播地址
		UDPEnabled       bool
		RedisEnabled     bool
		MetricsStream    string // Redis Streams 指标流
		LatestKey        string // Redis 最新指标键
		LatestTTLSec     int
		MQTTMetricsTopic string // MQTT 指标发布主题（启用 MQTT 时）
	}

	// WebSocket 实时推送配置
	WebSocket struct {
		Enabled    bool
		ListenAddr string
	}

	// mDNS 服务发现配置
	Discovery struct {
		Enabled bool
	}

	// 持久化配置
	Store struct {
		Enabled bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "biowatch")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "biowatch-collector")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.Sensor.DeviceName = getEnv("DEVICE_NAME", "BioWatch v1")
	cfg.Sensor.SampleRateHz = getEnvFloat("SAMPLE_RATE_HZ", 200)
	cfg.Sensor.SamplesPerPacket = getEnvInt("SAMPLES_PER_PACKET", 16)

	cfg.Window.Seconds = getEnvFloat("WINDOW_SECONDS", 8)
	cfg.Window.OverlapSeconds = getEnvFloat("WINDOW_OVERLAP_SECONDS", 0)

	cfg.Pipeline.BandpassLowHz = getEnvFloat("BANDPASS_LOW_HZ", 0.7)
	cfg.Pipeline.BandpassHighHz = getEnvFloat("BANDPASS_HIGH_HZ", 10)
	cfg.Pipeline.IntegrationWindowSec = getEnvFloat("INTEGRATION_WINDOW_SEC", 0.15)
	cfg.Pipeline.MinPeakDistanceSec = getEnvFloat("MIN_PEAK_DISTANCE_SEC", 0.5)
	cfg.Pipeline.PeakHeightFactor = getEnvFloat("PEAK_HEIGHT_FACTOR", 0.25)
	cfg.Pipeline.PeakProminenceFactor = getEnvFloat("PEAK_PROMINENCE_FACTOR", 0.08)
	cfg.Pipeline.RRBandLowFactor = getEnvFloat("RR_BAND_LOW_FACTOR", 0.6)
	cfg.Pipeline.RRBandHighFactor = getEnvFloat("RR_BAND_HIGH_FACTOR", 1.67)
	cfg.Pipeline.SpO2DelaySec = getEnvFloat("SPO2_DELAY_SEC", 0.02)
	cfg.Pipeline.TrimStartSec = getEnvFloat("TRIM_START_SEC", 1.0)
	cfg.Pipeline.TrimEndSec = getEnvFloat("TRIM_END_SEC", 2.0)

	cfg.Session.MinDurationSec = getEnvInt("SESSION_MIN_DURATION_SEC", 30)
	cfg.Session.Autostart = getEnvBool("SESSION_AUTOSTART", true)

	cfg.Transport.UDPListenAddr = getEnv("UDP_LISTEN_ADDR", ":5050")
	cfg.Transport.MQTTEnabled = getEnvBool("MQTT_TRANSPORT_ENABLED", false)
	cfg.Transport.DataTopic = getEnv("MQTT_DATA_TOPIC", "biowatch/+/data")
	cfg.Transport.ControlTopic = getEnv("MQTT_CONTROL_TOPIC", "biowatch/+/control")

	cfg.Publish.UDPBroadcastAddr = getEnv("METRICS_UDP_ADDR", "127.0.0.1:4444")
	cfg.Publish.UDPEnabled = getEnvBool("METRICS_UDP_ENABLED", true)
	cfg.Publish.RedisEnabled = getEnvBool("METRICS_REDIS_ENABLED", true)
	cfg.Publish.MetricsStream = getEnv("METRICS_STREAM", "biowatch:metrics:stream")
	cfg.Publish.LatestKey = getEnv("METRICS_LATEST_KEY", "biowatch:metrics:latest")
	cfg.Publish.LatestTTLSec = getEnvInt("METRICS_LATEST_TTL_SEC", 60)
	cfg.Publish.MQTTMetricsTopic = getEnv("MQTT_METRICS_TOPIC", "biowatch/metrics")

	cfg.WebSocket.Enabled = getEnvBool("WS_ENABLED", true)
	cfg.WebSocket.ListenAddr = getEnv("WS_LISTEN_ADDR", ":8090")

	cfg.Discovery.Enabled = getEnvBool("DISCOVERY_ENABLED", true)

	cfg.Store.Enabled = getEnvBool("STORE_ENABLED", true)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 校验配置（配置错误是唯一的启动期致命错误）
func (c *Config) Validate() error {
	if c.Sensor.SampleRateHz <= 0 {
		return fmt.Errorf("invalid sample rate: %v", c.Sensor.SampleRateHz)
	}
	if c.Sensor.SamplesPerPacket <= 0 {
		return fmt.Errorf("invalid samples per packet: %d", c.Sensor.SamplesPerPacket)
	}
	if c.Window.Seconds <= 0 {
		return fmt.Errorf("invalid window seconds: %v", c.Window.Seconds)
	}
	if c.Window.OverlapSeconds != 0 {
		// 滑动窗口是预留扩展点，当前只实现 tumbling
		return fmt.Errorf("window overlap is not supported yet: %v", c.Window.OverlapSeconds)
	}
	if c.Pipeline.BandpassLowHz <= 0 || c.Pipeline.BandpassHighHz <= c.Pipeline.BandpassLowHz {
		return fmt.Errorf("invalid bandpass corners: [%v, %v]",
			c.Pipeline.BandpassLowHz, c.Pipeline.BandpassHighHz)
	}
	if c.Pipeline.BandpassHighHz >= c.Sensor.SampleRateHz/2 {
		return fmt.Errorf("bandpass high corner %v exceeds Nyquist for sample rate %v",
			c.Pipeline.BandpassHighHz, c.Sensor.SampleRateHz)
	}
	if c.Pipeline.IntegrationWindowSec < 0.12 || c.Pipeline.IntegrationWindowSec > 0.15 {
		return fmt.Errorf("integration window %v outside [0.12, 0.15] s", c.Pipeline.IntegrationWindowSec)
	}
	if c.Pipeline.MinPeakDistanceSec < 0.35 || c.Pipeline.MinPeakDistanceSec > 0.65 {
		return fmt.Errorf("min peak distance %v outside [0.35, 0.65] s", c.Pipeline.MinPeakDistanceSec)
	}
	if c.Pipeline.PeakHeightFactor < 0.15 || c.Pipeline.PeakHeightFactor > 0.25 {
		return fmt.Errorf("peak height factor %v outside [0.15, 0.25]", c.Pipeline.PeakHeightFactor)
	}
	if c.Pipeline.PeakProminenceFactor < 0.05 || c.Pipeline.PeakProminenceFactor > 0.1 {
		return fmt.Errorf("peak prominence factor %v outside [0.05, 0.1]", c.Pipeline.PeakProminenceFactor)
	}
	if c.Pipeline.RRBandLowFactor < 0.6 || c.Pipeline.RRBandLowFactor > 0.7 {
		return fmt.Errorf("rr band low factor %v outside [0.6, 0.7]", c.Pipeline.RRBandLowFactor)
	}
	if c.Pipeline.RRBandHighFactor < 1.5 || c.Pipeline.RRBandHighFactor > 1.67 {
		return fmt.Errorf("rr band high factor %v outside [1.5, 1.67]", c.Pipeline.RRBandHighFactor)
	}
	if c.Session.MinDurationSec < 0 {
		return fmt.Errorf("invalid min session duration: %d", c.Session.MinDurationSec)
	}
	return nil
}

// WindowSamples 窗口采样数
func (c *Config) WindowSamples() int {
	return int(c.Window.Seconds * c.Sensor.SampleRateHz)
}

// PacketSize 二进制数据包字节数: 1 字节序号 + k × (2 通道 × uint32)
func (c *Config) PacketSize() int {
	return 1 + c.Sensor.SamplesPerPacket*8
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
