package pipeline

import (
	"errors"

	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/dsp"
	"biowatch-collector/internal/models"
	"biowatch-collector/internal/timeline"
)

// Processor 单窗口处理流水线
// 调理 → 脉搏变换 → 峰检测 → RR 清洗 → 指标合成，严格顺序执行。
// 任一阶段数据不足即短路，产出 Valid=false 的快照；
// 每个窗口相互独立，错误不会污染后续窗口。
// 离线回放和实时流共用同一条流水线，算法只写一份。
type Processor struct {
	conditioner *Conditioner
	transform   *PulseTransform
	peaks       *PeakDetector
	rr          *RRCleaner
	synth       *Synthesizer
	logger      *zap.Logger
}

// NewProcessor 创建流水线
func NewProcessor(cfg *config.Config, logger *zap.Logger) *Processor {
	fs := cfg.Sensor.SampleRateHz
	p := cfg.Pipeline
	return &Processor{
		conditioner: NewConditioner(p.BandpassLowHz, p.BandpassHighHz, fs),
		transform:   NewPulseTransform(p.IntegrationWindowSec, fs),
		peaks:       NewPeakDetector(p.MinPeakDistanceSec, fs, p.PeakHeightFactor, p.PeakProminenceFactor),
		rr:          NewRRCleaner(fs, p.RRBandLowFactor, p.RRBandHighFactor),
		synth:       NewSynthesizer(NewSpO2Estimator(p.SpO2DelaySec, fs), NewRespirationEstimator(fs)),
		logger:      logger,
	}
}

// Process 处理一个窗口，总是返回一个快照（可能 Valid=false）
func (p *Processor) Process(w *models.Window) *models.MetricsSnapshot {
	snap := &models.MetricsSnapshot{
		WindowIndex: w.Index,
		Partial:     w.Partial,
	}

	raw := w.A
	if w.Present != nil {
		dense, err := timeline.InterpolateSeries(w.A, w.Present)
		if err != nil {
			p.logWindowSkip(w, "gap interpolation", err)
			return snap
		}
		raw = dense
	}

	conditioned, err := p.conditioner.Condition(raw)
	if err != nil {
		p.logWindowSkip(w, "signal conditioning", err)
		return snap
	}

	integrated := p.transform.Apply(conditioned)
	peaks := p.peaks.Detect(integrated)
	rrMs := p.rr.Clean(peaks)

	if err := p.synth.Synthesize(snap, raw, conditioned, rrMs); err != nil {
		p.logWindowSkip(w, "metrics synthesis", err)
		return snap
	}

	p.logger.Debug("Window processed",
		zap.Int("window_index", w.Index),
		zap.Bool("valid", snap.Valid),
		zap.Int("peaks", len(peaks)),
		zap.Int("accepted_rr", len(rrMs)),
		zap.Int("hr_bpm", snap.HRBpm),
	)
	return snap
}

func (p *Processor) logWindowSkip(w *models.Window, stage string, err error) {
	// 数据不足是常规情况（丢包多、窗口过短），保持 Debug 级别
	level := p.logger.Debug
	if !errors.Is(err, timeline.ErrTooFewSamples) && !errors.Is(err, dsp.ErrSignalTooShort) {
		level = p.logger.Warn
	}
	level("Window yielded no metrics",
		zap.Int("window_index", w.Index),
		zap.String("stage", stage),
		zap.Int("known_samples", w.KnownCount()),
		zap.Int("window_samples", len(w.A)),
		zap.Error(err),
	)
}
