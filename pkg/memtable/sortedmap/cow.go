package sortedmap

import (
	"sync"
	"sync/atomic"

	"github.com/tidwall/btree"
)

// BTreeGCoW publishes an immutable btree through an atomic pointer. Readers
// load the current root without locking; writers copy, mutate and publish.
type BTreeGCoW[T any] struct {
	sync.Mutex // serializes writers only
	state      atomic.Pointer[btree.BTreeG[T]]
}

type IBTreeGCoW[T any] interface {
	Set(item T) (T, bool)
	Ascend(pivot T, iter func(item T) bool)
	Snapshot() *btree.BTreeG[T]
	Len() int
}

var _ IBTreeGCoW[any] = new(BTreeGCoW[any])

func NewBTreeGCoW[T any](less func(a, b T) bool) *BTreeGCoW[T] {
	r := BTreeGCoW[T]{}
	r.state.Store(btree.NewBTreeG[T](less))
	return &r
}

func (tr *BTreeGCoW[T]) Set(item T) (T, bool) {
	tr.Lock()
	defer tr.Unlock()

	newState := tr.state.Load().Copy()
	res1, res2 := newState.Set(item)
	tr.state.Store(newState)
	return res1, res2
}

func (tr *BTreeGCoW[T]) Ascend(pivot T, iter func(item T) bool) {
	tr.state.Load().Ascend(pivot, iter)
}

// Snapshot returns a private lazy copy of the current state. Holding an
// iterator on it never blocks writers or other readers.
func (tr *BTreeGCoW[T]) Snapshot() *btree.BTreeG[T] {
	return tr.state.Load().Copy()
}

func (tr *BTreeGCoW[T]) Len() int {
	return tr.state.Load().Len()
}
