package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/RussellLuo/timingwheel"
	"github.com/alphadose/zenq/v2"
	"github.com/dborchard/cometmem/cmd/benchmark/generator"
	"github.com/dborchard/cometmem/cmd/benchmark/lotsaa"
	"github.com/dborchard/cometmem/pkg/config"
	"github.com/dborchard/cometmem/pkg/kv"
	"github.com/dborchard/cometmem/pkg/metrics"
	"github.com/dborchard/cometmem/pkg/y/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	wheelTick    = 10 * time.Millisecond
	wheelSize    = 64
	avgWindow    = 6
	metricPrefix = "cometmem"
)

type Result struct {
	Inserts int64
	Reads   int64
	Misses  int64
}

type everyScheduler struct {
	interval time.Duration
}

func (s *everyScheduler) Next(prev time.Time) time.Time {
	return prev.Add(s.interval)
}

type runner struct {
	cfg   config.Benchmark
	store *kv.CometKV
	log   *zap.SugaredLogger

	inserts atomic.Int64
	reads   atomic.Int64
	misses  atomic.Int64

	// report state, guarded by reportMu since timer callbacks run on their own goroutines.
	reportMu   sync.Mutex
	lastOps    int64
	lastReport time.Time
	throughput *movingaverage.MovingAverage
}

// Run drives the configured workload until cfg.Benchmark.Duration elapses or
// ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &runner{
		cfg:        cfg.Benchmark,
		store:      kv.NewCometKV(kv.OptionsFromConfig(cfg)),
		log:        logger.With("component", "benchmark"),
		lastReport: time.Now(),
		throughput: movingaverage.New(avgWindow),
	}
	defer r.store.Close()

	if r.cfg.MetricsAddr != "" {
		srv := r.serveMetrics()
		defer srv.Close()
	}

	tw := timingwheel.NewTimingWheel(wheelTick, wheelSize)
	tw.Start()
	defer tw.Stop()

	tw.AfterFunc(r.cfg.Duration, cancel)
	reportTimer := tw.ScheduleFunc(&everyScheduler{r.cfg.ReportInterval}, r.report)
	defer reportTimer.Stop()

	r.log.Infow("benchmark started",
		"writers", r.cfg.Writers,
		"readers", r.cfg.Readers,
		"scan_width", r.cfg.ScanWidth,
		"duration", r.cfg.Duration)

	var writers sync.WaitGroup
	for i := 0; i < r.cfg.Writers; i++ {
		r.startWriter(ctx, &writers, i)
	}

	err := r.runReaders(ctx)
	if err != nil {
		cancel()
	}
	<-ctx.Done()
	writers.Wait()
	r.report()

	res := Result{Inserts: r.inserts.Load(), Reads: r.reads.Load(), Misses: r.misses.Load()}
	r.log.Infow("benchmark finished",
		"inserts", res.Inserts,
		"reads", res.Reads,
		"misses", res.Misses,
		"tables", len(r.store.Tables()))
	return res, err
}

// startWriter pairs a key generator with a writer through a private queue.
// The writer drains the queue until the generator closes it.
func (r *runner) startWriter(ctx context.Context, wg *sync.WaitGroup, idx int) {
	queue := zenq.New[string](r.cfg.QueueSize)
	keygen := generator.Build(generator.UNIFORM, 1, r.cfg.KeyRange)

	wg.Add(2)
	go func() {
		defer wg.Done()
		defer queue.Close()

		randSeq := rand.New(rand.NewSource(time.Now().UnixNano() + int64(idx)))
		for {
			select {
			case <-ctx.Done():
				return
			default:
				// key length 16 --> cache padding improvement
				queue.Write(fmt.Sprintf("%16d", keygen.Next(randSeq)))
			}
		}
	}()

	go func() {
		defer wg.Done()

		val := make([]byte, r.cfg.ValueSize)
		for {
			key, open := queue.Read()
			if !open {
				return
			}
			rand.Read(val)
			if _, err := r.store.Put(key, val); err != nil {
				r.log.Errorw("put failed", "key", key, "error", err)
				return
			}
			r.inserts.Add(1)
		}
	}()
}

func (r *runner) runReaders(ctx context.Context) error {
	if r.cfg.Readers == 0 {
		return nil
	}
	pool, err := ants.NewPool(r.cfg.Readers)
	if err != nil {
		return fmt.Errorf("reader pool: %w", err)
	}
	defer pool.Release()

	keyGen := generator.Build(generator.UNIFORM, 1, r.cfg.KeyRange)
	scanWidthGen := generator.Build(generator.UNIFORM, 1, int64(r.cfg.ScanWidth))

	_, err = lotsaa.Ops(ctx, pool, r.cfg.Readers, func(threadRand *rand.Rand, threadIdx int) {
		key := fmt.Sprintf("%16d", keyGen.Next(threadRand))
		snapshotID := r.store.LatestSnapshot()

		count := int(scanWidthGen.Next(threadRand))
		if count == 1 {
			if _, ok := r.store.Get(key, snapshotID); !ok {
				r.misses.Add(1)
			}
		} else if records := r.store.Scan(key, count, snapshotID); len(records) != count {
			r.misses.Add(1)
		}
		r.reads.Add(1)
	})
	return err
}

func (r *runner) serveMetrics() *http.Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewTableCollector(metricPrefix, r.store.Tables))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: r.cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Errorw("metrics server stopped", "addr", r.cfg.MetricsAddr, "error", err)
		}
	}()
	return srv
}

func (r *runner) report() {
	r.reportMu.Lock()
	defer r.reportMu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastReport).Seconds()
	if elapsed <= 0 {
		return
	}
	ops := r.inserts.Load() + r.reads.Load()
	rate := float64(ops-r.lastOps) / elapsed
	r.throughput.Add(rate)
	r.lastOps, r.lastReport = ops, now

	r.log.Infow("throughput",
		"ops_per_sec", int64(rate),
		"avg_ops_per_sec", int64(r.throughput.Avg()),
		"inserts", r.inserts.Load(),
		"reads", r.reads.Load(),
		"misses", r.misses.Load(),
		"sealed", len(r.store.Sealed()))
}
