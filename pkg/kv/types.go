package kv

import (
	"errors"

	"github.com/dborchard/cometmem/pkg/config"
	"github.com/dborchard/cometmem/pkg/table"
	"github.com/dborchard/cometmem/pkg/y/entry"
)

var ErrClosed = errors.New("kv: closed")

type KV interface {
	Put(key string, val []byte) (uint64, error)
	Delete(key string) (uint64, error)
	Get(key string, snapshotID uint64) ([]byte, bool)
	Scan(startKey string, count int, snapshotID uint64) []entry.Pair[string, []byte]
	LatestSnapshot() uint64

	Rotate()
	Tables() []table.Table
	Sealed() []table.Table
	Release(id uint64) bool
	Close()
}

var _ KV = new(CometKV)

type Options struct {
	// FlushThresholdBytes seals the mutable memtable once its size reaches it.
	FlushThresholdBytes uint64
	// MaxImmutableTables only triggers a warning; sealed tables stay until Release.
	MaxImmutableTables int
	LogStats           bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FlushThresholdBytes: cfg.FlushThresholdBytes,
		MaxImmutableTables:  cfg.MaxImmutableTables,
		LogStats:            cfg.LogStats,
	}
}
