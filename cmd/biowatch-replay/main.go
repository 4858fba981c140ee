package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"biowatch-collector/internal/config"
	"biowatch-collector/internal/ingest"
	logpkg "biowatch-collector/internal/logger"
	"biowatch-collector/internal/pipeline"
	"biowatch-collector/internal/publish"
	rediscommon "biowatch-collector/internal/redis"
	"biowatch-collector/internal/timeline"
	"biowatch-collector/internal/window"
)

// biowatch-replay 对一份录制 CSV 跑一遍完整流水线
// 和实时服务共用同一套算法阶段，区别只在窗口来源：整段录制
// 插值裁剪后作为一个窗口处理。
func main() {
	var (
		file      = flag.String("file", "", "path to recording CSV (seq,IR,Red)")
		doPublish = flag.Bool("publish", false, "also broadcast the snapshot over UDP and Redis")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: biowatch-replay -file <recording.csv> [-publish]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logpkg.NewLogger(cfg.Log.Level, "console", "biowatch-replay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	reader := ingest.NewReplayReader(*file, cfg.Sensor.SamplesPerPacket, log)
	asm, err := reader.Load()
	if err != nil {
		log.Fatal("Failed to load recording", zap.Error(err))
	}

	tl := asm.Timeline()
	if err := timeline.Interpolate(tl); err != nil {
		log.Fatal("Failed to reconstruct timeline", zap.Error(err))
	}

	fs := cfg.Sensor.SampleRateHz
	w, err := window.BatchWindow(tl,
		int(cfg.Pipeline.TrimStartSec*fs),
		int(cfg.Pipeline.TrimEndSec*fs),
	)
	if err != nil {
		log.Fatal("Failed to build batch window", zap.Error(err))
	}

	log.Info("Processing recording",
		zap.Int("total_samples", tl.Total()),
		zap.Float64("duration_sec", float64(len(w.A))/fs),
	)

	snap := pipeline.NewProcessor(cfg, log).Process(w)
	env := publish.NewEnvelope(cfg.Sensor.DeviceName, uuid.New().String(), snap)

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		log.Fatal("Failed to marshal snapshot", zap.Error(err))
	}
	fmt.Println(string(out))

	if *doPublish {
		broadcast(cfg, env, log)
	}
}

func broadcast(cfg *config.Config, env *publish.Envelope, log *zap.Logger) {
	if cfg.Publish.UDPEnabled {
		b, err := publish.NewUDPBroadcaster(cfg.Publish.UDPBroadcastAddr, log)
		if err != nil {
			log.Error("Failed to create broadcaster", zap.Error(err))
		} else {
			defer b.Close()
			if err := b.Send(env); err != nil {
				log.Error("Failed to broadcast snapshot", zap.Error(err))
			}
		}
	}

	if cfg.Publish.RedisEnabled {
		client := rediscommon.NewRedisClient(&cfg.Redis)
		defer rediscommon.Close(client)

		pub := publish.NewRedisPublisher(
			client,
			cfg.Publish.MetricsStream,
			cfg.Publish.LatestKey,
			time.Duration(cfg.Publish.LatestTTLSec)*time.Second,
			log,
		)
		if err := pub.Publish(context.Background(), env); err != nil {
			log.Error("Failed to publish snapshot to redis", zap.Error(err))
		}
	}
}
