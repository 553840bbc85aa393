package sortedmap

import (
	"bytes"

	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/tidwall/btree"
)

// cursor owns a btree iterator over a private snapshot.
type cursor struct {
	iter   btree.IterG[entry.Tuple]
	valid  bool
	closed bool
	item   entry.Tuple
}

func newCursor(snap *btree.BTreeG[entry.Tuple]) cursor {
	return cursor{iter: snap.Iter()}
}

func (c *cursor) Item() entry.Tuple {
	return c.item
}

func (c *cursor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.valid = false
	c.iter.Release()
}

type rawIterator struct {
	cursor
}

func (r *rawIterator) Next() bool {
	if r.closed {
		return false
	}
	if !r.valid {
		r.Close()
		return false
	}
	r.item = r.iter.Item()
	r.valid = r.iter.Next()
	return true
}

// ascendingIterator relies on newer versions sorting first: the first version
// <= snapshotID of each user key is the visible one, the rest are skipped.
type ascendingIterator struct {
	cursor
	snapshotID uint64
	lastKey    []byte
	emitted    bool
}

func newAscendingIterator(snap *btree.BTreeG[entry.Tuple], snapshotID uint64) *ascendingIterator {
	return &ascendingIterator{cursor: newCursor(snap), snapshotID: snapshotID}
}

func (a *ascendingIterator) releaseIfDone() *ascendingIterator {
	if !a.valid {
		a.Close()
	}
	return a
}

func (a *ascendingIterator) Next() bool {
	if a.closed {
		return false
	}
	for a.valid {
		t := a.iter.Item()
		a.valid = a.iter.Next()

		if t.Key.SnapshotID > a.snapshotID {
			continue
		}
		if a.emitted && bytes.Equal(t.Key.UserKey, a.lastKey) {
			continue
		}
		a.emitted = true
		a.lastKey = t.Key.UserKey
		a.item = t
		return true
	}
	a.Close()
	return false
}

// descendingIterator walks each user key group from its oldest version to its
// newest, remembering the newest version <= snapshotID, and emits it once the
// group ends.
type descendingIterator struct {
	cursor
	snapshotID uint64
	candidate  entry.Tuple
	pending    bool
}

func newDescendingIterator(snap *btree.BTreeG[entry.Tuple], snapshotID uint64) *descendingIterator {
	return &descendingIterator{cursor: newCursor(snap), snapshotID: snapshotID}
}

func (d *descendingIterator) releaseIfDone() *descendingIterator {
	if !d.valid {
		d.Close()
	}
	return d
}

func (d *descendingIterator) Next() bool {
	if d.closed {
		return false
	}
	for d.valid {
		t := d.iter.Item()
		if d.pending && !bytes.Equal(t.Key.UserKey, d.candidate.Key.UserKey) {
			// t starts the next group; leave the cursor on it.
			return d.emit()
		}
		if t.Key.SnapshotID <= d.snapshotID {
			d.candidate, d.pending = t, true
		}
		d.valid = d.iter.Prev()
	}
	if d.pending {
		return d.emit()
	}
	d.Close()
	return false
}

func (d *descendingIterator) emit() bool {
	d.item = d.candidate
	d.candidate, d.pending = entry.Tuple{}, false
	return true
}
