package util

import (
	"fmt"

	"github.com/vmihailenco/msgpack"
)

// PageSize is the fixed size of every on-disk page and in-memory frame.
const PageSize = 4096

// ToByteSlice serializes obj into a page-sized buffer.
func ToByteSlice[T any](obj T) ([]byte, error) {
	res := make([]byte, PageSize)

	data, err := msgpack.Marshal(obj)
	if err != nil {
		return nil, err
	}
	if len(data) > PageSize {
		return nil, fmt.Errorf("serialized page is %d bytes, page size is %d", len(data), PageSize)
	}
	copy(res, data)

	return res, nil
}

// ToStruct deserializes a page buffer into T. A fresh page is all
// zeroes, which is not valid msgpack; that case decodes to T's zero
// value so newly allocated pages start out empty.
func ToStruct[T any](data []byte) (T, error) {
	var res T

	if err := msgpack.Unmarshal(data, &res); err != nil {
		for _, b := range data {
			if b != 0 {
				return res, err
			}
		}
		var zero T
		return zero, nil
	}

	return res, nil
}
