package window

import (
	"errors"

	"biowatch-collector/internal/models"
	"biowatch-collector/internal/timeline"
)

// ErrEmptyRecording 裁剪后没有剩余采样
var ErrEmptyRecording = errors.New("recording is empty after trimming")

// BatchWindow 把整段稠密时间线裁剪后包成一个窗口（离线回放模式）
// trimStart/trimEnd 以采样数计，用于去掉录制首尾的连接伪影。
// 时间线必须已插值稠密。
func BatchWindow(tl *timeline.Timeline, trimStart, trimEnd int) (*models.Window, error) {
	n := tl.Total()
	if trimStart < 0 {
		trimStart = 0
	}
	if trimEnd < 0 {
		trimEnd = 0
	}
	end := n - trimEnd
	if trimStart >= end {
		return nil, ErrEmptyRecording
	}

	return &models.Window{
		Index: 0,
		Start: trimStart,
		A:     append([]float64(nil), tl.A[trimStart:end]...),
		B:     append([]float64(nil), tl.B[trimStart:end]...),
	}, nil
}
