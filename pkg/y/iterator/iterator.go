package iterator

// Iterator is a lazy, pull based sequence that owns a resource until closed.
//
//	it := tbl.AscendingIterator(snapshotID)
//	defer it.Close()
//	for it.Next() {
//		use(it.Item())
//	}
//
// Close must be safe to call more than once and after exhaustion.
type Iterator[T any] interface {
	Next() bool
	Item() T
	Close()
}

// ForEach feeds every item to fn until fn returns false. The iterator is
// closed on every exit path, including a panic in fn.
func ForEach[T any](it Iterator[T], fn func(item T) bool) {
	defer it.Close()
	for it.Next() {
		if !fn(it.Item()) {
			return
		}
	}
}

// Collect drains the iterator into a slice and closes it.
func Collect[T any](it Iterator[T]) []T {
	var items []T
	ForEach(it, func(item T) bool {
		items = append(items, item)
		return true
	})
	return items
}

// Take collects at most n items and closes the iterator.
func Take[T any](it Iterator[T], n int) []T {
	items := make([]T, 0, n)
	if n <= 0 {
		it.Close()
		return items
	}
	ForEach(it, func(item T) bool {
		items = append(items, item)
		return len(items) < n
	})
	return items
}

type sliceIterator[T any] struct {
	items []T
	pos   int
	item  T
}

// FromSlice iterates over items in order.
func FromSlice[T any](items []T) Iterator[T] {
	return &sliceIterator[T]{items: items}
}

func (s *sliceIterator[T]) Next() bool {
	if s.pos >= len(s.items) {
		return false
	}
	s.item = s.items[s.pos]
	s.pos++
	return true
}

func (s *sliceIterator[T]) Item() T {
	return s.item
}

func (s *sliceIterator[T]) Close() {
	s.items = nil
	s.pos = 0
}

// Empty returns an iterator with no items.
func Empty[T any]() Iterator[T] {
	return FromSlice[T](nil)
}
