package pipeline

import (
	"math"

	"biowatch-collector/internal/dsp"
	"biowatch-collector/internal/models"
)

// 置信度 = clamp(9×接受间期数 − 15, 0, 100)
// 接受的搏动越多置信度越高；0 或接近 0 时整个快照无效。
const (
	confidencePerInterval = 9
	confidenceOffset      = 15
)

// Synthesizer 指标合成器
// 在清洗后的 RR 间期和调理后的信号上计算全部生理指标。
// 任一前级数据不足时快照保持 Valid=false，绝不发布部分指标。
type Synthesizer struct {
	spo2 *SpO2Estimator
	resp *RespirationEstimator
}

// NewSynthesizer 创建指标合成器
func NewSynthesizer(spo2 *SpO2Estimator, resp *RespirationEstimator) *Synthesizer {
	return &Synthesizer{spo2: spo2, resp: resp}
}

// Synthesize 填充快照
// raw 是插值后未滤波的窗口（DC 信息还在），conditioned 是带通后的信号。
func (s *Synthesizer) Synthesize(snap *models.MetricsSnapshot, raw, conditioned, rrMs []float64) error {
	snap.ConfidencePct = Confidence(len(rrMs))
	if snap.ConfidencePct <= 0 {
		snap.Valid = false
		return nil
	}

	medianRR := dsp.Median(rrMs)
	snap.HRBpm = int(math.Round(60000 / medianRR))
	snap.MeanRRMs = int(medianRR)
	snap.RMSSDMs = round1(rmssd(rrMs))
	snap.SDNNMs = round1(dsp.Std(rrMs))
	snap.SetRRIntervals(rrMs)

	snap.PerfusionIndexX10 = int(dsp.Std(conditioned) / max64(dsp.Mean(raw), spo2Epsilon) * 1000)
	snap.RespirationBpm = round1(s.resp.Estimate(conditioned))

	spo2, err := s.spo2.Estimate(raw)
	if err != nil {
		return err
	}
	snap.SpO2Pct = round1(spo2)

	snap.Valid = true
	return nil
}

// Confidence 接受 RR 间期数到置信度的单调映射
func Confidence(acceptedIntervals int) int {
	c := acceptedIntervals*confidencePerInterval - confidenceOffset
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// rmssd 相邻 RR 差值的均方根（短时 HRV 标准指标）
func rmssd(rrMs []float64) float64 {
	if len(rrMs) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(rrMs); i++ {
		d := rrMs[i] - rrMs[i-1]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(rrMs)-1))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
