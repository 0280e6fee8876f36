package contractdb

import (
	"encoding/binary"
	"errors"
)

// byteOrder is the fixed endianness for every integer this package
// encodes directly (outside of the row payloads the contracts package
// owns).
var byteOrder = binary.BigEndian

var (
	// ErrKeyCollision is returned when a batch's InsertNew targets a
	// key that already has a value.
	ErrKeyCollision = errors.New("contractdb: key already exists")
)
