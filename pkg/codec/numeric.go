package codec

import "encoding/binary"

// Uint64Codec encodes uint64 values as 8 fixed big-endian bytes, preserving
// unsigned numeric order under plain byte-slice comparison.
type Uint64Codec struct{}

// NewUint64Codec returns a ready-to-use Uint64Codec.
func NewUint64Codec() Uint64Codec { return Uint64Codec{} }

func (Uint64Codec) Encode(value uint64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return buf, nil
}

func (Uint64Codec) Decode(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, ErrShortBuffer
	}
	return binary.BigEndian.Uint64(data[:8]), nil
}

func (Uint64Codec) Compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Int64Codec encodes int64 values as 8 bytes, flipping the sign bit so that
// big-endian byte order matches signed numeric order.
type Int64Codec struct{}

// NewInt64Codec returns a ready-to-use Int64Codec.
func NewInt64Codec() Int64Codec { return Int64Codec{} }

func (Int64Codec) Encode(value int64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(value)^(1<<63))
	return buf, nil
}

func (Int64Codec) Decode(data []byte) (int64, error) {
	if len(data) < 8 {
		return 0, ErrShortBuffer
	}
	return int64(binary.BigEndian.Uint64(data[:8]) ^ (1 << 63)), nil
}

func (Int64Codec) Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
