package entry

// Value is either a payload or a tombstone marking deletion as of its key's snapshot.
type Value struct {
	Data      []byte
	Tombstone bool
}

func NewValue(data []byte) Value {
	return Value{Data: data}
}

func TombstoneValue() Value {
	return Value{Tombstone: true}
}

// Tuple pairs a versioned key with its value. The size is fixed at construction.
type Tuple struct {
	Key   Key
	Value Value
	size  uint32
}

func NewTuple(key Key, val Value) Tuple {
	return Tuple{
		Key:   key,
		Value: val,
		size:  uint32(key.Size() + len(val.Data)),
	}
}

func NewTombstone(key Key) Tuple {
	return NewTuple(key, TombstoneValue())
}

func (t Tuple) Size() uint32 {
	return t.size
}

func (t Tuple) IsTombstone() bool {
	return t.Value.Tombstone
}

func (t Tuple) Validate() error {
	return t.Key.Validate()
}

// Pair is a plain key/value result row.
type Pair[K any, V any] struct {
	Key K
	Val V
}
