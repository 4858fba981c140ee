package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/models"
	"biowatch-collector/internal/timeline"
	"biowatch-collector/internal/window"
)

var (
	// ErrSessionRunning 已有会话在进行中
	ErrSessionRunning = errors.New("session already in progress")
	// ErrSessionNotRunning 当前没有会话
	ErrSessionNotRunning = errors.New("no session in progress")
	// ErrSessionTooShort 停止请求早于最短会话时长，被丢弃
	ErrSessionTooShort = errors.New("stop requested before minimum session duration")
)

// Manager 会话生命周期管理
// 对外只暴露两个入口：Begin（开始接收采样）和 RequestStop（请求优雅停止）。
// 最短时长规则在内部实现：开流后早于配置时长的停止请求被直接丢弃
// （不是延迟执行），防止录制被意外截短；之后的停止请求立即生效，
// 并把剩余采样作为标记过的不完整窗口冲刷出去。
//
// 每个会话持有自己的组装器，单写者所有权明确，没有进程级共享状态。
type Manager struct {
	cfg    *config.Config
	buffer *window.Buffer
	logger *zap.Logger

	mu          sync.Mutex
	running     bool
	id          string
	assembler   *timeline.Assembler
	startedAt   time.Time
	cursor      int // 下一个窗口的绝对起始位置
	windowIndex int
}

// NewManager 创建会话管理器
func NewManager(cfg *config.Config, buf *window.Buffer, logger *zap.Logger) *Manager {
	return &Manager{cfg: cfg, buffer: buf, logger: logger}
}

// Begin 开始新会话，返回会话 ID
func (m *Manager) Begin() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return "", ErrSessionRunning
	}

	m.running = true
	m.id = uuid.New().String()
	m.assembler = timeline.NewAssembler(m.cfg.Sensor.SamplesPerPacket)
	m.startedAt = time.Now()
	m.cursor = 0
	m.windowIndex = 0

	m.logger.Info("Session started",
		zap.String("session_id", m.id),
		zap.Int("window_samples", m.cfg.WindowSamples()),
		zap.Int("min_duration_sec", m.cfg.Session.MinDurationSec),
	)
	return m.id, nil
}

// RequestStop 请求优雅停止
// 早于最短会话时长的请求返回 ErrSessionTooShort 并被丢弃，会话继续。
func (m *Manager) RequestStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ErrSessionNotRunning
	}

	elapsed := time.Since(m.startedAt)
	minDuration := time.Duration(m.cfg.Session.MinDurationSec) * time.Second
	if elapsed < minDuration {
		m.logger.Info("Stop request ignored, session below minimum duration",
			zap.String("session_id", m.id),
			zap.Duration("elapsed", elapsed),
			zap.Duration("min_duration", minDuration),
		)
		return ErrSessionTooShort
	}

	m.flushPartialLocked()
	m.running = false

	m.logger.Info("Session stopped",
		zap.String("session_id", m.id),
		zap.Duration("elapsed", elapsed),
		zap.Int("windows_cut", m.windowIndex),
	)
	return nil
}

// Shutdown 进程退出时的强制停止
// 跳过最短时长规则（那条规则防的是误触，不是停机），冲刷最后的
// 不完整窗口后结束会话。没有会话时什么都不做。
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.flushPartialLocked()
	m.running = false

	m.logger.Info("Session force-stopped on shutdown",
		zap.String("session_id", m.id),
		zap.Int("windows_cut", m.windowIndex),
	)
}

// IngestPacket 接收一个数据包
// 每当时间线覆盖到下一个窗口末尾就切出一个 tumbling 窗口放入缓冲。
// 会话未运行时丢弃（返回 ErrSessionNotRunning，由传输层记录）。
func (m *Manager) IngestPacket(pkt *models.RawPacket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ErrSessionNotRunning
	}

	m.assembler.Add(pkt)

	winSamples := m.cfg.WindowSamples()
	for m.assembler.Total() >= m.cursor+winSamples {
		m.cutLocked(m.cursor, m.cursor+winSamples, false)
		m.cursor += winSamples
	}
	return nil
}

// Running 是否有会话在进行
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// ID 当前（或最近一次）会话 ID
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// cutLocked 切出 [start, end) 窗口放入缓冲，调用方持锁
func (m *Manager) cutLocked(start, end int, partial bool) {
	a, b, present := m.assembler.Slice(start, end)
	if len(a) == 0 {
		return
	}

	// 全部已知就不带缺失掩码，处理端可以跳过插值
	dense := true
	for _, p := range present {
		if !p {
			dense = false
			break
		}
	}
	if dense {
		present = nil
	}

	w := &models.Window{
		Index:   m.windowIndex,
		Start:   start,
		A:       a,
		B:       b,
		Present: present,
		Partial: partial,
	}
	m.windowIndex++

	if evicted := m.buffer.Put(w); evicted {
		m.logger.Debug("Unconsumed window evicted",
			zap.Int("window_index", w.Index),
		)
	}
}

// flushPartialLocked 冲刷最后一个不完整窗口
func (m *Manager) flushPartialLocked() {
	total := m.assembler.Total()
	if total > m.cursor {
		m.cutLocked(m.cursor, total, true)
		m.cursor = total
	}
}
