package table

import (
	"bytes"
	"container/heap"

	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
)

type mergingIterator struct {
	mh     *MinHeap
	item   entry.Tuple
	closed bool
}

// NewMergingIterator merges visibility filtered iterators that all run in the
// same direction. It yields one tuple per user key: the one with the highest
// snapshot id, ties going to the earlier source. Pass sources newest table
// first. Tombstones are yielded; skipping them is up to the caller.
func NewMergingIterator(ascending bool, sources ...iterator.Iterator[entry.Tuple]) iterator.Iterator[entry.Tuple] {
	mh := &MinHeap{descending: !ascending}
	for rank, it := range sources {
		if it.Next() {
			mh.items = append(mh.items, &source{iter: it, head: it.Item(), rank: rank})
		} else {
			it.Close()
		}
	}
	heap.Init(mh)
	return &mergingIterator{mh: mh}
}

// MergeTables merges the visible rows of tables at snapshotID, starting at
// startKey when it is not nil.
func MergeTables(tables []Table, ascending bool, startKey []byte, snapshotID uint64) iterator.Iterator[entry.Tuple] {
	ordered := make([]Table, len(tables))
	copy(ordered, tables)
	SortNewestFirst(ordered)

	sources := make([]iterator.Iterator[entry.Tuple], 0, len(ordered))
	for _, t := range ordered {
		switch {
		case startKey == nil && ascending:
			sources = append(sources, t.AscendingIterator(snapshotID))
		case startKey == nil:
			sources = append(sources, t.DescendingIterator(snapshotID))
		case ascending:
			sources = append(sources, t.AscendingIteratorFrom(entry.NewKey(startKey, snapshotID), snapshotID))
		default:
			sources = append(sources, t.DescendingIteratorFrom(entry.NewKey(startKey, snapshotID), snapshotID))
		}
	}
	return NewMergingIterator(ascending, sources...)
}

func (m *mergingIterator) Next() bool {
	if m.closed || m.mh.Len() == 0 {
		return false
	}

	winner := m.mh.items[0].head
	// Drop every head for the same user key, winner included.
	for m.mh.Len() > 0 && bytes.Equal(m.mh.items[0].head.Key.UserKey, winner.Key.UserKey) {
		m.advance()
	}
	m.item = winner
	return true
}

func (m *mergingIterator) advance() {
	top := m.mh.items[0]
	if top.iter.Next() {
		top.head = top.iter.Item()
		heap.Fix(m.mh, 0)
		return
	}
	top.iter.Close()
	heap.Pop(m.mh)
}

func (m *mergingIterator) Item() entry.Tuple {
	return m.item
}

func (m *mergingIterator) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for m.mh.Len() > 0 {
		heap.Pop(m.mh).(*source).iter.Close()
	}
}
