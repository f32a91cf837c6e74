package catalog

import (
	"github.com/vmihailenco/msgpack"

	"github.com/osprey-db/osprey/util"
)

// RID names a tuple's physical slot.
type RID struct {
	PageId int64
	Slot   int32
}

type Tuple struct {
	Values []Value
	Rid    RID
}

func NewTuple(values []Value) *Tuple {
	return &Tuple{Values: values}
}

func (t *Tuple) Value(idx int) Value {
	return t.Values[idx]
}

// KeyFromTuple derives an index key from the key column. Index keys
// are fixed-width integers.
func (t *Tuple) KeyFromTuple(keyAttr int) (int64, error) {
	if keyAttr < 0 || keyAttr >= len(t.Values) {
		return 0, util.NewTypeMismatchError("index key column out of range")
	}
	v := t.Values[keyAttr]
	if v.Type != IntegerType {
		return 0, util.NewTypeMismatchError("index key column is not an integer")
	}
	return v.Int, nil
}

func (t *Tuple) serialize() ([]byte, error) {
	return msgpack.Marshal(t.Values)
}

func deserializeTuple(data []byte) (*Tuple, error) {
	var values []Value
	if err := msgpack.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return &Tuple{Values: values}, nil
}
