package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	FlushThresholdBytes uint64 `yaml:"flush_threshold_bytes"`
	MaxImmutableTables  int    `yaml:"max_immutable_tables"`
	LogStats            bool   `yaml:"log_stats"`
	LogLevel            string `yaml:"log_level"`
	LogFile             string `yaml:"log_file"`

	Benchmark Benchmark `yaml:"benchmark"`
}

type Benchmark struct {
	KeyRange       int64         `yaml:"key_range"`
	ValueSize      int           `yaml:"value_size"`
	Writers        int           `yaml:"writers"`
	Readers        int           `yaml:"readers"`
	ScanWidth      int           `yaml:"scan_width"`
	Duration       time.Duration `yaml:"duration"`
	ReportInterval time.Duration `yaml:"report_interval"`
	QueueSize      uint32        `yaml:"queue_size"`
	MetricsAddr    string        `yaml:"metrics_addr"`
}

func Default() *Config {
	return &Config{
		FlushThresholdBytes: 64 << 20,
		MaxImmutableTables:  4,
		LogStats:            true,
		LogLevel:            "info",
		Benchmark: Benchmark{
			KeyRange:       1_000_000,
			ValueSize:      128,
			Writers:        1,
			Readers:        16,
			ScanWidth:      100,
			Duration:       time.Minute,
			ReportInterval: 10 * time.Second,
			QueueSize:      1 << 16,
		},
	}
}

// FromFile overlays the YAML file at path on the defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.FlushThresholdBytes == 0:
		return fmt.Errorf("%w: flush_threshold_bytes must be positive", ErrInvalid)
	case c.MaxImmutableTables < 0:
		return fmt.Errorf("%w: max_immutable_tables must not be negative", ErrInvalid)
	case c.Benchmark.KeyRange <= 0:
		return fmt.Errorf("%w: benchmark.key_range must be positive", ErrInvalid)
	case c.Benchmark.Writers <= 0:
		return fmt.Errorf("%w: benchmark.writers must be positive", ErrInvalid)
	case c.Benchmark.Readers < 0:
		return fmt.Errorf("%w: benchmark.readers must not be negative", ErrInvalid)
	case c.Benchmark.ScanWidth <= 0:
		return fmt.Errorf("%w: benchmark.scan_width must be positive", ErrInvalid)
	case c.Benchmark.Duration <= 0:
		return fmt.Errorf("%w: benchmark.duration must be positive", ErrInvalid)
	case c.Benchmark.ReportInterval <= 0:
		return fmt.Errorf("%w: benchmark.report_interval must be positive", ErrInvalid)
	case c.Benchmark.QueueSize == 0:
		return fmt.Errorf("%w: benchmark.queue_size must be positive", ErrInvalid)
	}
	return nil
}
