package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"biowatch-collector/internal/repository"
)

// SessionReportHeader 会话报表表头
var SessionReportHeader = []string{
	"Window",
	"Recorded At",
	"Partial",
	"Valid",
	"HR (bpm)",
	"RMSSD (ms)",
	"SDNN (ms)",
	"SpO2 (%)",
	"Perfusion x10",
	"Respiration (bpm)",
	"Confidence (%)",
	"Mean RR (ms)",
}

// GenerateSessionReport 把一个会话的全部指标记录导出为 xlsx 报表
func GenerateSessionReport(sessionID string, readings []repository.Reading) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Session"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 会话信息行 + 表头
	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Session %s", sessionID)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write session row: %w", err)
	}
	for col, title := range SessionReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i, rd := range readings {
		row := i + 3
		values := []interface{}{
			rd.WindowIndex,
			rd.RecordedAt.Format("2006-01-02 15:04:05"),
			rd.Partial,
			rd.Valid,
			rd.HRBpm,
			rd.RMSSDMs,
			rd.SDNNMs,
			rd.SpO2Pct,
			rd.PerfusionIndexX10,
			rd.RespirationBpm,
			rd.ConfidencePct,
			rd.MeanRRMs,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
