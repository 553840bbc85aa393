package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dborchard/cometmem/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortConfig() *config.Config {
	cfg := config.Default()
	cfg.FlushThresholdBytes = 16 << 10
	cfg.LogStats = false
	cfg.Benchmark.KeyRange = 1000
	cfg.Benchmark.ValueSize = 16
	cfg.Benchmark.Writers = 2
	cfg.Benchmark.Readers = 4
	cfg.Benchmark.ScanWidth = 10
	cfg.Benchmark.Duration = 200 * time.Millisecond
	cfg.Benchmark.ReportInterval = 50 * time.Millisecond
	cfg.Benchmark.QueueSize = 64
	return cfg
}

func TestRun(t *testing.T) {
	start := time.Now()
	res, err := Run(context.Background(), shortConfig())
	require.NoError(t, err)

	assert.Positive(t, res.Inserts)
	assert.Positive(t, res.Reads)
	assert.LessOrEqual(t, res.Misses, res.Reads)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunWritersOnly(t *testing.T) {
	cfg := shortConfig()
	cfg.Benchmark.Readers = 0

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Positive(t, res.Inserts)
	assert.Zero(t, res.Reads)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := shortConfig()
	cfg.Benchmark.Duration = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, cfg)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: error
benchmark:
  key_range: 100
  writers: 1
  readers: 1
  scan_width: 5
  duration: 100ms
  report_interval: 50ms
  queue_size: 16
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--config", path})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), " I = ")
}

func TestRunCommandBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  writers: 0\n"), 0o644))

	rootCmd.SetArgs([]string{"run", "--config", path})
	rootCmd.SilenceUsage = true
	defer rootCmd.SetArgs(nil)

	assert.ErrorIs(t, rootCmd.ExecuteContext(context.Background()), config.ErrInvalid)
}
