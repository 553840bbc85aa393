package table

import (
	"cmp"

	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
	"golang.org/x/exp/slices"
)

// Table is the capability shared by memtables and persistent tables. All
// iterators are visibility filtered at the given snapshot id except Iterator,
// which yields every stored version.
type Table interface {
	ID() uint64

	Get(key entry.Key) (entry.Tuple, bool)
	MightContain(key entry.Key) bool

	AscendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple]
	DescendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple]
	AscendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple]
	DescendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple]
	Iterator() iterator.Iterator[entry.Tuple]

	TupleCount() uint64
	Size() uint64
	Level() uint32
	MaxSnapshotID() uint64
	IsPersistent() bool

	Close()
}

// MutableTable accepts writes.
type MutableTable interface {
	Table
	Put(tuple entry.Tuple)
}

// Compare orders tables by id, oldest generation first.
func Compare(a, b Table) int {
	return cmp.Compare(a.ID(), b.ID())
}

// SortNewestFirst orders tables by descending id in place.
func SortNewestFirst(tables []Table) {
	slices.SortFunc(tables, func(a, b Table) int {
		return Compare(b, a)
	})
}
