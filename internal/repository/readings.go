package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"biowatch-collector/internal/publish"
)

// ReadingRepository 指标快照的持久化仓库
// 快照由核心产出后交给仓库保留，核心自身不保留历史。
type ReadingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *sql.DB, logger *zap.Logger) *ReadingRepository {
	return &ReadingRepository{
		db:     db,
		logger: logger,
	}
}

// Reading 一条已入库的指标记录
type Reading struct {
	ID                int64
	RecordedAt        time.Time
	Device            string
	SessionID         string
	WindowIndex       int
	Partial           bool
	Valid             bool
	HRBpm             int
	RMSSDMs           float64
	SDNNMs            float64
	SpO2Pct           float64
	PerfusionIndexX10 int
	RespirationBpm    float64
	ConfidencePct     int
	MeanRRMs          int
	RRIntervals       []int
}

// InsertReading 写入一条指标记录
func (r *ReadingRepository) InsertReading(env *publish.Envelope) error {
	rrJSON, err := json.Marshal(env.RRIntervals)
	if err != nil {
		return fmt.Errorf("failed to marshal rr intervals: %w", err)
	}
	rawJSON, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO ppg_readings (
			device, session_id, window_index, partial, valid,
			hr_bpm, rmssd_ms, sdnn_ms, spo2_pct, perfusion_index_x10,
			respiration_bpm, confidence_pct, mean_rr_ms, rr_intervals, raw_snapshot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.Exec(query,
		env.Device,
		env.SessionID,
		env.WindowIndex,
		env.Partial,
		env.Valid,
		env.HRBpm,
		env.RMSSDMs,
		env.SDNNMs,
		env.SpO2Pct,
		env.PerfusionIndexX10,
		env.RespirationBpm,
		env.ConfidencePct,
		env.MeanRRMs,
		rrJSON,
		rawJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	r.logger.Debug("Reading stored",
		zap.String("session_id", env.SessionID),
		zap.Int("window_index", env.WindowIndex),
	)
	return nil
}

// ListBySession 按会话列出全部指标记录（窗口序递增）
func (r *ReadingRepository) ListBySession(sessionID string) ([]Reading, error) {
	query := `
		SELECT
			id, recorded_at, device, session_id, window_index, partial, valid,
			hr_bpm, rmssd_ms, sdnn_ms, spo2_pct, perfusion_index_x10,
			respiration_bpm, confidence_pct, mean_rr_ms, rr_intervals
		FROM ppg_readings
		WHERE session_id = $1
		ORDER BY window_index
	`
	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var rd Reading
		var rrJSON []byte

		if err := rows.Scan(
			&rd.ID,
			&rd.RecordedAt,
			&rd.Device,
			&rd.SessionID,
			&rd.WindowIndex,
			&rd.Partial,
			&rd.Valid,
			&rd.HRBpm,
			&rd.RMSSDMs,
			&rd.SDNNMs,
			&rd.SpO2Pct,
			&rd.PerfusionIndexX10,
			&rd.RespirationBpm,
			&rd.ConfidencePct,
			&rd.MeanRRMs,
			&rrJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		if len(rrJSON) > 0 {
			if err := json.Unmarshal(rrJSON, &rd.RRIntervals); err != nil {
				return nil, fmt.Errorf("failed to unmarshal rr intervals: %w", err)
			}
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}
