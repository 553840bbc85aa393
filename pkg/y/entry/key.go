package entry

import (
	"bytes"
	"errors"
	"fmt"
	"math"
)

// MaxSnapshotID sorts before every other version of the same user key.
const MaxSnapshotID = math.MaxUint64

var ErrNilKey = errors.New("entry: nil user key")

// Key is a user key tagged with the snapshot id it was written at.
type Key struct {
	UserKey    []byte
	SnapshotID uint64
}

func NewKey(userKey []byte, snapshotID uint64) Key {
	return Key{UserKey: userKey, SnapshotID: snapshotID}
}

// CompareKeys orders by user key ascending, then snapshot id descending,
// so the newest version of a user key comes first.
func CompareKeys(a, b Key) int {
	if c := bytes.Compare(a.UserKey, b.UserKey); c != 0 {
		return c
	}
	switch {
	case a.SnapshotID > b.SnapshotID:
		return -1
	case a.SnapshotID < b.SnapshotID:
		return 1
	}
	return 0
}

// Size is the serialized footprint: key bytes plus an 8 byte snapshot id.
func (k Key) Size() int {
	return len(k.UserKey) + 8
}

func (k Key) Validate() error {
	if k.UserKey == nil {
		return ErrNilKey
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%q@%d", k.UserKey, k.SnapshotID)
}
