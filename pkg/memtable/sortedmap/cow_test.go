package sortedmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intLess(a, b int) bool { return a < b }

func TestBTreeGCoWSnapshotIsolation(t *testing.T) {
	tr := NewBTreeGCoW(intLess)
	for i := 0; i < 10; i++ {
		tr.Set(i)
	}

	snap := tr.Snapshot()
	for i := 10; i < 20; i++ {
		tr.Set(i)
	}

	assert.Equal(t, 10, snap.Len())
	assert.Equal(t, 20, tr.Len())
}

func TestBTreeGCoWReplace(t *testing.T) {
	tr := NewBTreeGCoW(intLess)
	_, replaced := tr.Set(1)
	assert.False(t, replaced)
	prev, replaced := tr.Set(1)
	assert.True(t, replaced)
	assert.Equal(t, 1, prev)
	assert.Equal(t, 1, tr.Len())
}

func TestBTreeGCoWAscend(t *testing.T) {
	tr := NewBTreeGCoW(intLess)
	for _, v := range []int{5, 1, 3} {
		tr.Set(v)
	}

	var got []int
	tr.Ascend(2, func(item int) bool {
		got = append(got, item)
		return true
	})
	assert.Equal(t, []int{3, 5}, got)
}

func TestBTreeGCoWConcurrentWriters(t *testing.T) {
	tr := NewBTreeGCoW(intLess)

	const writers, perWriter = 8, 500
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				tr.Set(w*perWriter + i)
			}
		}(w)
	}

	// Readers iterate private snapshots while writers publish.
	var rg sync.WaitGroup
	rg.Add(4)
	for r := 0; r < 4; r++ {
		go func() {
			defer rg.Done()
			for i := 0; i < 50; i++ {
				snap := tr.Snapshot()
				iter := snap.Iter()
				prev := -1
				for ok := iter.First(); ok; ok = iter.Next() {
					assert.Greater(t, iter.Item(), prev)
					prev = iter.Item()
				}
				iter.Release()
			}
		}()
	}

	wg.Wait()
	rg.Wait()
	assert.Equal(t, writers*perWriter, tr.Len())
}
