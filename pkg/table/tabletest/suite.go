// Package tabletest holds the contract tests every table.MutableTable
// implementation runs from its own package.
package tabletest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dborchard/cometmem/pkg/table"
	"github.com/dborchard/cometmem/pkg/y/entry"
	"github.com/dborchard/cometmem/pkg/y/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Constructor func(id uint64) table.MutableTable

func put(tbl table.MutableTable, k string, snapshotID uint64, v string) entry.Tuple {
	t := entry.NewTuple(entry.NewKey([]byte(k), snapshotID), entry.NewValue([]byte(v)))
	tbl.Put(t)
	return t
}

func rows(it iterator.Iterator[entry.Tuple]) []string {
	out := []string{}
	iterator.ForEach(it, func(item entry.Tuple) bool {
		out = append(out, fmt.Sprintf("%s=%s", item.Key.UserKey, item.Value.Data))
		return true
	})
	return out
}

// RunAll runs every contract test as a subtest.
func RunAll(newTable Constructor, t *testing.T) {
	t.Run("Visibility", func(t *testing.T) { TestVisibility(newTable, t) })
	t.Run("Scan", func(t *testing.T) { TestScan(newTable, t) })
	t.Run("RangeStart", func(t *testing.T) { TestRangeStart(newTable, t) })
	t.Run("Counters", func(t *testing.T) { TestCounters(newTable, t) })
	t.Run("Replace", func(t *testing.T) { TestReplace(newTable, t) })
	t.Run("Identity", func(t *testing.T) { TestIdentity(newTable, t) })
	t.Run("ConcurrentWriters", func(t *testing.T) { TestConcurrentWriters(newTable, t) })
}

// TestVisibility a@1=x, a@3=y, b@2=z. Verify Get and MightContain.
func TestVisibility(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	put(tbl, "a", 1, "x")
	put(tbl, "a", 3, "y")
	put(tbl, "b", 2, "z")

	got, ok := tbl.Get(entry.NewKey([]byte("a"), 2))
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got.Value.Data)

	got, ok = tbl.Get(entry.NewKey([]byte("a"), 3))
	require.True(t, ok)
	assert.Equal(t, []byte("y"), got.Value.Data)

	assert.True(t, tbl.MightContain(entry.NewKey([]byte("b"), 2)))
	assert.False(t, tbl.MightContain(entry.NewKey([]byte("b"), 1)))
	assert.False(t, tbl.MightContain(entry.NewKey([]byte("c"), 9)))
}

// TestScan Scan at different snapshots, both directions.
func TestScan(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	put(tbl, "a", 1, "x")
	put(tbl, "a", 3, "y")
	put(tbl, "b", 2, "z")

	assert.Equal(t, []string{}, rows(tbl.AscendingIterator(0)))
	assert.Equal(t, []string{"a=x"}, rows(tbl.AscendingIterator(1)))
	assert.Equal(t, []string{"a=x", "b=z"}, rows(tbl.AscendingIterator(2)))
	assert.Equal(t, []string{"a=y", "b=z"}, rows(tbl.AscendingIterator(3)))
	assert.Equal(t, []string{"b=z", "a=x"}, rows(tbl.DescendingIterator(2)))
	assert.Equal(t, []string{"b=z", "a=y"}, rows(tbl.DescendingIterator(3)))
	assert.Equal(t, []string{"a=y", "a=x", "b=z"}, rows(tbl.Iterator()))
}

// TestRangeStart Scan from a start key, both directions.
func TestRangeStart(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	for i := 1; i <= 5; i++ {
		put(tbl, fmt.Sprint(i), uint64(i), string(rune('a'+i-1)))
	}

	from := entry.NewKey([]byte("3"), 0)
	assert.Equal(t, []string{"3=c", "4=d", "5=e"}, rows(tbl.AscendingIteratorFrom(from, 10)))
	assert.Equal(t, []string{"3=c", "4=d"}, rows(tbl.AscendingIteratorFrom(from, 4)))
	assert.Equal(t, []string{"3=c", "2=b", "1=a"}, rows(tbl.DescendingIteratorFrom(from, 10)))
	assert.Equal(t, []string{"2=b", "1=a"}, rows(tbl.DescendingIteratorFrom(from, 2)))
}

// TestCounters Verify TupleCount, Size and MaxSnapshotID.
func TestCounters(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	assert.Equal(t, uint64(0), tbl.TupleCount())
	assert.Equal(t, uint64(0), tbl.Size())
	assert.Equal(t, uint64(0), tbl.MaxSnapshotID())

	var size uint64
	for i := 1; i <= 10; i++ {
		size += uint64(put(tbl, fmt.Sprint(i%3), uint64(i), "value").Size())
		assert.Equal(t, uint64(i), tbl.TupleCount())
		assert.Equal(t, size, tbl.Size())
		assert.Equal(t, uint64(i), tbl.MaxSnapshotID())
	}

	tbl.Put(entry.NewTombstone(entry.NewKey([]byte("0"), 11)))
	assert.Equal(t, uint64(11), tbl.TupleCount())
	assert.Equal(t, uint64(11), tbl.MaxSnapshotID())
}

// TestReplace Put the same key and snapshot twice.
func TestReplace(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	put(tbl, "k", 4, "old")
	put(tbl, "k", 4, "new")

	assert.Equal(t, []string{"k=new"}, rows(tbl.Iterator()))
	got, ok := tbl.Get(entry.NewKey([]byte("k"), 4))
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got.Value.Data)
}

// TestIdentity Verify ID ordering across tables.
func TestIdentity(newTable Constructor, t *testing.T) {
	older, newer := newTable(7), newTable(8)
	defer older.Close()
	defer newer.Close()

	assert.Equal(t, uint64(7), older.ID())
	assert.Equal(t, -1, table.Compare(older, newer))
	assert.Equal(t, 1, table.Compare(newer, older))
	assert.Equal(t, 0, table.Compare(older, older))

	tables := []table.Table{older, newer}
	table.SortNewestFirst(tables)
	assert.Equal(t, uint64(8), tables[0].ID())
}

// TestConcurrentWriters Multi Writer. Multi Reader.
func TestConcurrentWriters(newTable Constructor, t *testing.T) {
	tbl := newTable(1)
	defer tbl.Close()

	const writers, n = 4, 500
	var wg sync.WaitGroup
	wg.Add(writers * 2)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				put(tbl, fmt.Sprintf("%05d", i), uint64(w*n+i+1), fmt.Sprint(w))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				tbl.Get(entry.NewKey([]byte(fmt.Sprintf("%05d", i)), entry.MaxSnapshotID))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(writers*n), tbl.TupleCount())
	assert.Equal(t, uint64(writers*n), tbl.MaxSnapshotID())
	visible := rows(tbl.AscendingIterator(entry.MaxSnapshotID))
	require.Len(t, visible, n)
	for _, row := range visible {
		assert.Contains(t, row, fmt.Sprintf("=%d", writers-1))
	}
}
