package sortedmap

import (
	"bytes"

	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
)

// VersionedSortedMap stores tuples ordered by entry.CompareKeys and resolves
// MVCC visibility on read: at snapshot s a user key resolves to its newest
// version whose snapshot id is <= s.
type VersionedSortedMap struct {
	tree *BTreeGCoW[entry.Tuple]
}

func New() *VersionedSortedMap {
	return &VersionedSortedMap{
		tree: NewBTreeGCoW(func(a, b entry.Tuple) bool {
			return entry.CompareKeys(a.Key, b.Key) < 0
		}),
	}
}

// Put inserts the tuple, replacing any tuple stored at the identical key and
// snapshot id. It panics on a tuple without a user key.
func (m *VersionedSortedMap) Put(tuple entry.Tuple) {
	if err := tuple.Validate(); err != nil {
		panic(err)
	}
	m.tree.Set(tuple)
}

// Get returns the version of key.UserKey visible at key.SnapshotID.
func (m *VersionedSortedMap) Get(key entry.Key) (entry.Tuple, bool) {
	if err := key.Validate(); err != nil {
		panic(err)
	}

	var (
		found entry.Tuple
		ok    bool
	)
	// The first item >= (userKey, s) is the newest version not newer than s,
	// provided it still belongs to the same user key.
	m.tree.Ascend(entry.Tuple{Key: key}, func(item entry.Tuple) bool {
		if bytes.Equal(item.Key.UserKey, key.UserKey) {
			found, ok = item, true
		}
		return false
	})
	return found, ok
}

func (m *VersionedSortedMap) AscendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple] {
	it := newAscendingIterator(m.tree.Snapshot(), snapshotID)
	it.valid = it.iter.First()
	return it.releaseIfDone()
}

// AscendingIteratorFrom starts at the first user key >= startKey.UserKey.
func (m *VersionedSortedMap) AscendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple] {
	it := newAscendingIterator(m.tree.Snapshot(), snapshotID)
	pivot := entry.Tuple{Key: entry.NewKey(startKey.UserKey, entry.MaxSnapshotID)}
	it.valid = it.iter.Seek(pivot)
	return it.releaseIfDone()
}

func (m *VersionedSortedMap) DescendingIterator(snapshotID uint64) iterator.Iterator[entry.Tuple] {
	it := newDescendingIterator(m.tree.Snapshot(), snapshotID)
	it.valid = it.iter.Last()
	return it.releaseIfDone()
}

// DescendingIteratorFrom starts at the last user key <= startKey.UserKey.
func (m *VersionedSortedMap) DescendingIteratorFrom(startKey entry.Key, snapshotID uint64) iterator.Iterator[entry.Tuple] {
	it := newDescendingIterator(m.tree.Snapshot(), snapshotID)

	// (userKey, 0) is the last possible position of userKey's group.
	pivot := entry.NewKey(startKey.UserKey, 0)
	if it.iter.Seek(entry.Tuple{Key: pivot}) {
		it.valid = true
		if entry.CompareKeys(it.iter.Item().Key, pivot) > 0 {
			it.valid = it.iter.Prev()
		}
	} else {
		it.valid = it.iter.Last()
	}
	return it.releaseIfDone()
}

// Iterator yields every stored version in map order, without visibility filtering.
func (m *VersionedSortedMap) Iterator() iterator.Iterator[entry.Tuple] {
	it := &rawIterator{cursor: newCursor(m.tree.Snapshot())}
	it.valid = it.iter.First()
	if !it.valid {
		it.Close()
	}
	return it
}

// Len is the number of stored versions.
func (m *VersionedSortedMap) Len() int {
	return m.tree.Len()
}
