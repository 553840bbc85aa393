package memtable

import (
	"sync/atomic"

	"github.com/dborchard/cometmem/pkg/memtable/sortedmap"
	"github.com/dborchard/cometmem/pkg/table"
	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
)

// MemTable is the mutable, in-memory table. Tuples are kept sorted as they are
// inserted; the counters are advisory and updated independently of the data.
type MemTable struct {
	id      uint64
	records *sortedmap.VersionedSortedMap

	tupleCount    atomic.Uint64
	size          atomic.Uint64
	maxSnapshotID atomic.Uint64
}

var _ table.MutableTable = new(MemTable)

func New(id uint64) *MemTable {
	return &MemTable{
		id:      id,
		records: sortedmap.New(),
	}
}

func (m *MemTable) Put(tuple entry.Tuple) {
	m.records.Put(tuple)
	m.tupleCount.Add(1)
	m.size.Add(uint64(tuple.Size()))
	m.raiseMaxSnapshotID(tuple.Key.SnapshotID)
}

// raiseMaxSnapshotID keeps the maximum even when concurrent writers present
// snapshot ids out of order.
func (m *MemTable) raiseMaxSnapshotID(snapshotID uint64) {
	for {
		curr := m.maxSnapshotID.Load()
		if snapshotID <= curr || m.maxSnapshotID.CompareAndSwap(curr, snapshotID) {
			return
		}
	}
}

func (m *MemTable) ID() uint64 {
	return m.id
}

func (m *MemTable) Get(key entry.Key) (entry.Tuple, bool) {
	return m.records.Get(key)
}

// MightContain is exact for memtables.
func (m *MemTable) MightContain(key entry.Key) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *MemTable) AscendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple] {
	return m.records.AscendingIterator(snapshotID)
}

func (m *MemTable) DescendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple] {
	return m.records.DescendingIterator(snapshotID)
}

func (m *MemTable) AscendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple] {
	return m.records.AscendingIteratorFrom(startKey, snapshotID)
}

func (m *MemTable) DescendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple] {
	return m.records.DescendingIteratorFrom(startKey, snapshotID)
}

func (m *MemTable) Iterator() iterator.Iterator[entry.Tuple] {
	return m.records.Iterator()
}

func (m *MemTable) TupleCount() uint64 {
	return m.tupleCount.Load()
}

func (m *MemTable) Size() uint64 {
	return m.size.Load()
}

// Level is always 0: memtables are the newest generation.
func (m *MemTable) Level() uint32 {
	return 0
}

func (m *MemTable) MaxSnapshotID() uint64 {
	return m.maxSnapshotID.Load()
}

func (m *MemTable) IsPersistent() bool {
	return false
}

func (m *MemTable) Close() {}
