package kv

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dborchard/cometmem/pkg/config"
	"github.com/dborchard/cometmem/pkg/y/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newKV(threshold uint64) *CometKV {
	return NewCometKV(Options{FlushThresholdBytes: threshold, MaxImmutableTables: 2})
}

// TestPutGet Put, update and read at older snapshots.
func TestPutGet(t *testing.T) {
	kv := newKV(1 << 20)
	defer kv.Close()

	s1, err := kv.Put("1", []byte("a"))
	require.NoError(t, err)
	s2, _ := kv.Put("1", []byte("b"))
	assert.Greater(t, s2, s1)
	assert.Equal(t, s2, kv.LatestSnapshot())

	val, ok := kv.Get("1", s1)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), val)

	val, ok = kv.Get("1", kv.LatestSnapshot())
	assert.True(t, ok)
	assert.Equal(t, []byte("b"), val)

	_, ok = kv.Get("1", s1-1)
	assert.False(t, ok)
	_, ok = kv.Get("2", kv.LatestSnapshot())
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	kv := newKV(1 << 20)
	defer kv.Close()

	s1, _ := kv.Put("1", []byte("a"))
	kv.Put("2", []byte("b"))
	kv.Put("3", []byte("c"))
	kv.Delete("1")

	_, ok := kv.Get("1", kv.LatestSnapshot())
	assert.False(t, ok)
	val, ok := kv.Get("1", s1)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), val)

	rows := kv.Scan("", 3, kv.LatestSnapshot())
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].Key)
	assert.Equal(t, "3", rows[1].Key)
}

func TestScan(t *testing.T) {
	kv := newKV(1 << 20)
	defer kv.Close()

	for i := 1; i <= 4; i++ {
		kv.Put(fmt.Sprint(i), []byte{byte('a' + i - 1)})
	}
	snap := kv.LatestSnapshot()

	rows := kv.Scan("1", 2, snap)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("a"), rows[0].Val)
	assert.Equal(t, []byte("b"), rows[1].Val)

	rows = kv.Scan("2", 10, snap)
	require.Len(t, rows, 3)
	assert.Equal(t, "2", rows[0].Key)

	rows = kv.Scan("1", 10, snap-2)
	assert.Len(t, rows, 2)

	assert.Empty(t, kv.Scan("1", 0, snap))
}

func TestRotationKeepsReadsConsistent(t *testing.T) {
	// every put overflows the threshold, so each tuple lands in its own table
	kv := newKV(1)
	defer kv.Close()

	kv.Put("a", []byte("1"))
	sOld, _ := kv.Put("b", []byte("1"))
	kv.Put("a", []byte("2"))
	kv.Delete("b")

	assert.Len(t, kv.Sealed(), 4)
	assert.Len(t, kv.Tables(), 5)
	assert.Equal(t, uint64(0), kv.Tables()[0].TupleCount())

	val, ok := kv.Get("a", kv.LatestSnapshot())
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), val)
	_, ok = kv.Get("b", kv.LatestSnapshot())
	assert.False(t, ok)

	rows := kv.Scan("", 10, sOld)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("1"), rows[0].Val)
	assert.Equal(t, "b", rows[1].Key)

	rows = kv.Scan("", 10, kv.LatestSnapshot())
	require.Len(t, rows, 1)
	assert.Equal(t, []byte("2"), rows[0].Val)
}

func TestReleaseAndRotate(t *testing.T) {
	kv := newKV(1 << 20)
	defer kv.Close()

	kv.Put("a", []byte("1"))
	kv.Rotate()
	kv.Put("b", []byte("1"))

	sealed := kv.Sealed()
	require.Len(t, sealed, 1)
	assert.Equal(t, uint64(1), sealed[0].ID())
	assert.Equal(t, uint64(2), kv.Tables()[0].ID())

	assert.True(t, kv.Release(1))
	assert.False(t, kv.Release(1))
	assert.Empty(t, kv.Sealed())

	_, ok := kv.Get("a", kv.LatestSnapshot())
	assert.False(t, ok, "released data is gone from this layer")
}

func TestRotationLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger.SetLogger(zap.New(core))
	defer logger.SetLogger(zap.NewNop())

	kv := NewCometKV(Options{FlushThresholdBytes: 1, MaxImmutableTables: 1, LogStats: true})
	defer kv.Close()
	kv.Put("a", []byte("1"))
	kv.Put("b", []byte("1"))

	assert.Equal(t, 2, logs.FilterMessage("memtable sealed").Len())
	assert.Equal(t, 1, logs.FilterMessage("sealed memtables waiting for flush exceed limit").Len())
}

func TestClosed(t *testing.T) {
	kv := newKV(1 << 20)
	kv.Put("a", []byte("1"))
	kv.Close()
	kv.Close()

	_, err := kv.Put("a", []byte("2"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = kv.Delete("a")
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := kv.Get("a", kv.LatestSnapshot())
	assert.False(t, ok)
	assert.Empty(t, kv.Scan("", 10, kv.LatestSnapshot()))
	assert.Nil(t, kv.Tables())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.FlushThresholdBytes = 99
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, uint64(99), opts.FlushThresholdBytes)
	assert.Equal(t, cfg.MaxImmutableTables, opts.MaxImmutableTables)
	assert.Equal(t, cfg.LogStats, opts.LogStats)
}

// TestConcurrentWritersWithRotation Multi Writer. Multi Reader.
func TestConcurrentWritersWithRotation(t *testing.T) {
	kv := newKV(4 << 10)
	defer kv.Close()

	const writers, n = 4, 500
	var wg sync.WaitGroup
	wg.Add(writers + 2)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				k := fmt.Sprintf("%d-%05d", w, i)
				s, err := kv.Put(k, []byte(k))
				assert.NoError(t, err)

				val, ok := kv.Get(k, s)
				assert.True(t, ok)
				assert.Equal(t, []byte(k), val)
			}
		}(w)
	}
	for r := 0; r < 2; r++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				rows := kv.Scan("", 50, kv.LatestSnapshot())
				for j := 1; j < len(rows); j++ {
					assert.Less(t, rows[j-1].Key, rows[j].Key)
				}
			}
		}()
	}
	wg.Wait()

	assert.NotEmpty(t, kv.Sealed())
	var total uint64
	for _, tbl := range kv.Tables() {
		total += tbl.TupleCount()
	}
	assert.Equal(t, uint64(writers*n), total)
	assert.Len(t, kv.Scan("", writers*n+1, kv.LatestSnapshot()), writers*n)
}
