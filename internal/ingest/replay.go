package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"biowatch-collector/internal/models"
	"biowatch-collector/internal/timeline"
)

// ReplayReader 离线录制 CSV 读取器
// 格式: 表头 seq,IR,Red，按包追加的行。文件可能还在增长：每次 Load
// 读取当前全部内容，总量从当前最大序号重新推导。
// CSV 里的序号已经是绝对序号，不需要解环。
type ReplayReader struct {
	path             string
	samplesPerPacket int
	logger           *zap.Logger
}

// NewReplayReader 创建回放读取器
func NewReplayReader(path string, samplesPerPacket int, logger *zap.Logger) *ReplayReader {
	return &ReplayReader{
		path:             path,
		samplesPerPacket: samplesPerPacket,
		logger:           logger,
	}
}

// Load 读取文件当前内容，组装成时间线
// 同一序号连续的行按行序落位到包内位置（固件整包写出，行序即包内序）。
// 损坏的行是致命条件，向上传播而不是静默吞掉。
func (r *ReplayReader) Load() (*timeline.Assembler, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read recording header: %w", err)
	}
	if len(header) != 3 || header[0] != "seq" {
		return nil, fmt.Errorf("unexpected recording header: %v", header)
	}

	asm := timeline.NewAssembler(r.samplesPerPacket)

	var (
		curSeq  uint64
		pending []models.Sample
		rows    int
	)
	flush := func() {
		if len(pending) > 0 {
			asm.Add(&models.RawPacket{Sequence: curSeq, Samples: pending})
			pending = nil
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read recording row %d: %w", rows+1, err)
		}

		seq, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt sequence at row %d: %w", rows+1, err)
		}
		ir, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt IR value at row %d: %w", rows+1, err)
		}
		red, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt Red value at row %d: %w", rows+1, err)
		}

		if len(pending) > 0 && (seq != curSeq || len(pending) == r.samplesPerPacket) {
			flush()
		}
		curSeq = seq
		pending = append(pending, models.Sample{ChannelA: ir, ChannelB: red})
		rows++
	}
	flush()

	r.logger.Info("Recording loaded",
		zap.String("path", r.path),
		zap.Int("rows", rows),
		zap.Int("total_samples", asm.Total()),
		zap.Int("known_samples", asm.KnownCount()),
	)
	return asm, nil
}
