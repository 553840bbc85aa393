package table

import (
	"bytes"

	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
)

type source struct {
	iter iterator.Iterator[entry.Tuple]
	head entry.Tuple
	rank int // position in the caller's list, lower is newer
}

// MinHeap orders sources by their head tuple. For one user key the highest
// snapshot id wins, then the lowest rank.
type MinHeap struct {
	items      []*source
	descending bool
}

func (m *MinHeap) Len() int { return len(m.items) }
func (m *MinHeap) Less(i, j int) bool {
	a, b := m.items[i], m.items[j]
	if c := bytes.Compare(a.head.Key.UserKey, b.head.Key.UserKey); c != 0 {
		if m.descending {
			return c > 0
		}
		return c < 0
	}
	if a.head.Key.SnapshotID != b.head.Key.SnapshotID {
		return a.head.Key.SnapshotID > b.head.Key.SnapshotID
	}
	return a.rank < b.rank
}
func (m *MinHeap) Swap(i, j int) { m.items[i], m.items[j] = m.items[j], m.items[i] }

func (m *MinHeap) Push(x interface{}) {
	m.items = append(m.items, x.(*source))
}

func (m *MinHeap) Pop() interface{} {
	old := m.items
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	m.items = old[0 : n-1]
	return x
}
