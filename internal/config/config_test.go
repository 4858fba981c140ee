package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 检查默认值
	if cfg.Sensor.SampleRateHz != 200 {
		t.Errorf("Expected SAMPLE_RATE_HZ default 200, got %v", cfg.Sensor.SampleRateHz)
	}

	if cfg.Sensor.SamplesPerPacket != 16 {
		t.Errorf("Expected SAMPLES_PER_PACKET default 16, got %d", cfg.Sensor.SamplesPerPacket)
	}

	if cfg.Window.Seconds != 8 {
		t.Errorf("Expected WINDOW_SECONDS default 8, got %v", cfg.Window.Seconds)
	}

	if cfg.WindowSamples() != 1600 {
		t.Errorf("Expected window samples 1600, got %d", cfg.WindowSamples())
	}

	if cfg.PacketSize() != 129 {
		t.Errorf("Expected packet size 129, got %d", cfg.PacketSize())
	}

	if cfg.Session.MinDurationSec != 30 {
		t.Errorf("Expected SESSION_MIN_DURATION_SEC default 30, got %d", cfg.Session.MinDurationSec)
	}

	if cfg.Pipeline.RRBandLowFactor != 0.6 || cfg.Pipeline.RRBandHighFactor != 1.67 {
		t.Errorf("Expected RR band defaults 0.6/1.67, got %v/%v",
			cfg.Pipeline.RRBandLowFactor, cfg.Pipeline.RRBandHighFactor)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Publish.UDPBroadcastAddr != "127.0.0.1:4444" {
		t.Errorf("Expected METRICS_UDP_ADDR default '127.0.0.1:4444', got '%s'", cfg.Publish.UDPBroadcastAddr)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("SAMPLE_RATE_HZ", "512")
	os.Setenv("WINDOW_SECONDS", "10")
	os.Setenv("RR_BAND_HIGH_FACTOR", "1.5")
	os.Setenv("SESSION_AUTOSTART", "false")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("SAMPLE_RATE_HZ")
		os.Unsetenv("WINDOW_SECONDS")
		os.Unsetenv("RR_BAND_HIGH_FACTOR")
		os.Unsetenv("SESSION_AUTOSTART")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Sensor.SampleRateHz != 512 {
		t.Errorf("Expected SAMPLE_RATE_HZ 512, got %v", cfg.Sensor.SampleRateHz)
	}

	if cfg.Window.Seconds != 10 {
		t.Errorf("Expected WINDOW_SECONDS 10, got %v", cfg.Window.Seconds)
	}

	if cfg.Pipeline.RRBandHighFactor != 1.5 {
		t.Errorf("Expected RR_BAND_HIGH_FACTOR 1.5, got %v", cfg.Pipeline.RRBandHighFactor)
	}

	if cfg.Session.Autostart {
		t.Error("Expected SESSION_AUTOSTART false")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Sensor.SampleRateHz = 0 }},
		{"zero window", func(c *Config) { c.Window.Seconds = 0 }},
		{"overlap not supported", func(c *Config) { c.Window.OverlapSeconds = 2 }},
		{"inverted bandpass", func(c *Config) { c.Pipeline.BandpassLowHz = 12 }},
		{"bandpass above nyquist", func(c *Config) { c.Pipeline.BandpassHighHz = 150 }},
		{"rr band low out of range", func(c *Config) { c.Pipeline.RRBandLowFactor = 0.3 }},
		{"rr band high out of range", func(c *Config) { c.Pipeline.RRBandHighFactor = 2.0 }},
		{"peak distance out of range", func(c *Config) { c.Pipeline.MinPeakDistanceSec = 1.0 }},
		{"peak prominence out of range", func(c *Config) { c.Pipeline.PeakProminenceFactor = 0.3 }},
		{"negative min duration", func(c *Config) { c.Session.MinDurationSec = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
