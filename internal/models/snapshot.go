package models

// RRCapacity 快照中 RR 间期列表的固定容量（不足补零，保证定宽编码）
const RRCapacity = 16

// MetricsSnapshot 单个窗口的指标快照
// Valid=false 表示该窗口无法产出可靠指标，其余数值字段均无意义，
// 消费端必须按缺失处理。快照一经产出即不可变。
type MetricsSnapshot struct {
	Valid             bool              `json:"valid"`
	HRBpm             int               `json:"hr_bpm"`
	RMSSDMs           float64           `json:"rmssd_ms"`
	SDNNMs            float64           `json:"sdnn_ms"`
	SpO2Pct           float64           `json:"spo2_pct"`
	PerfusionIndexX10 int               `json:"perfusion_index_x10"`
	RespirationBpm    float64           `json:"respiration_bpm"`
	ConfidencePct     int               `json:"confidence_pct"`
	RRIntervals       [RRCapacity]int   `json:"rr_intervals"`
	MeanRRMs          int               `json:"mean_rr_ms"`
	WindowIndex       int               `json:"window_index"`
	Partial           bool              `json:"partial"`
}

// SetRRIntervals 写入 RR 间期列表，保留最近 RRCapacity 个，不足补零
func (s *MetricsSnapshot) SetRRIntervals(rrMs []float64) {
	start := 0
	if len(rrMs) > RRCapacity {
		start = len(rrMs) - RRCapacity
	}
	i := 0
	for _, rr := range rrMs[start:] {
		s.RRIntervals[i] = int(rr)
		i++
	}
}
