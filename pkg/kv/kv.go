package kv

import (
	"sync"
	"sync/atomic"

	"github.com/dborchard/cometmem/pkg/memtable"
	"github.com/dborchard/cometmem/pkg/table"
	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/logger"
	"go.uber.org/zap"
)

// CometKV writes into one mutable memtable and reads across it and the sealed
// memtables waiting to be flushed.
type CometKV struct {
	// mu guards the table set. Puts hold it shared so a rotation never races
	// an in-flight write into the table being sealed.
	mu      sync.RWMutex
	mutable *memtable.MemTable
	sealed  []table.Table // newest first
	closed  bool

	lastTableID atomic.Uint64
	snapshotID  atomic.Uint64

	opts Options
	log  *zap.SugaredLogger
}

func NewCometKV(opts Options) *CometKV {
	kv := CometKV{
		opts: opts,
		log:  logger.With("component", "kv"),
	}
	kv.mutable = memtable.New(kv.lastTableID.Add(1))
	return &kv
}

// Put returns the snapshot id the write was tagged with.
func (c *CometKV) Put(key string, val []byte) (uint64, error) {
	return c.write(key, entry.NewValue(val))
}

func (c *CometKV) Delete(key string) (uint64, error) {
	return c.write(key, entry.TombstoneValue())
}

func (c *CometKV) write(key string, val entry.Value) (uint64, error) {
	mem, snapshotID, err := c.apply(key, val)
	if err != nil {
		return 0, err
	}
	if mem.Size() >= c.opts.FlushThresholdBytes {
		c.rotate(mem)
	}
	return snapshotID, nil
}

func (c *CometKV) apply(key string, val entry.Value) (*memtable.MemTable, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, 0, ErrClosed
	}
	snapshotID := c.snapshotID.Add(1)
	c.mutable.Put(entry.NewTuple(entry.NewKey([]byte(key), snapshotID), val))
	return c.mutable, snapshotID, nil
}

// LatestSnapshot is the id of the most recently allocated write.
func (c *CometKV) LatestSnapshot() uint64 {
	return c.snapshotID.Load()
}

// Get returns the value visible at snapshotID. Deleted keys are absent.
func (c *CometKV) Get(key string, snapshotID uint64) ([]byte, bool) {
	var (
		best  entry.Tuple
		found bool
	)
	lookup := entry.NewKey([]byte(key), snapshotID)
	for _, t := range c.Tables() {
		res, ok := t.Get(lookup)
		if ok && (!found || res.Key.SnapshotID > best.Key.SnapshotID) {
			best, found = res, true
		}
	}
	if !found || best.IsTombstone() {
		return nil, false
	}
	return best.Value.Data, true
}

// Scan returns up to count live rows with key >= startKey, visible at snapshotID.
func (c *CometKV) Scan(startKey string, count int, snapshotID uint64) []entry.Pair[string, []byte] {
	res := make([]entry.Pair[string, []byte], 0, count)
	if count <= 0 {
		return res
	}

	it := table.MergeTables(c.Tables(), true, []byte(startKey), snapshotID)
	defer it.Close()
	for len(res) < count && it.Next() {
		item := it.Item()
		if item.IsTombstone() {
			continue
		}
		res = append(res, entry.Pair[string, []byte]{Key: string(item.Key.UserKey), Val: item.Value.Data})
	}
	return res
}

// Rotate seals the current mutable memtable regardless of its size.
func (c *CometKV) Rotate() {
	c.mu.RLock()
	mem := c.mutable
	c.mu.RUnlock()
	c.rotate(mem)
}

func (c *CometKV) rotate(expected *memtable.MemTable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another writer already rotated this table.
	if c.closed || c.mutable != expected {
		return
	}

	c.sealed = append([]table.Table{expected}, c.sealed...)
	c.mutable = memtable.New(c.lastTableID.Add(1))

	if c.opts.LogStats {
		c.log.Infow("memtable sealed",
			"id", expected.ID(),
			"tuples", expected.TupleCount(),
			"size", expected.Size(),
			"max_snapshot_id", expected.MaxSnapshotID(),
			"sealed", len(c.sealed))
	}
	if c.opts.MaxImmutableTables > 0 && len(c.sealed) > c.opts.MaxImmutableTables {
		c.log.Warnw("sealed memtables waiting for flush exceed limit",
			"sealed", len(c.sealed),
			"limit", c.opts.MaxImmutableTables)
	}
}

// Tables returns the mutable memtable followed by the sealed ones, newest first.
func (c *CometKV) Tables() []table.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil
	}
	tables := make([]table.Table, 0, len(c.sealed)+1)
	tables = append(tables, c.mutable)
	return append(tables, c.sealed...)
}

// Sealed returns the tables waiting to be flushed, newest first.
func (c *CometKV) Sealed() []table.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sealed := make([]table.Table, len(c.sealed))
	copy(sealed, c.sealed)
	return sealed
}

// Release drops a sealed table once it has been flushed elsewhere.
func (c *CometKV) Release(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.sealed {
		if t.ID() == id {
			c.sealed = append(c.sealed[:i:i], c.sealed[i+1:]...)
			t.Close()
			return true
		}
	}
	return false
}

func (c *CometKV) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.mutable.Close()
	for _, t := range c.sealed {
		t.Close()
	}
	c.sealed = nil
}
