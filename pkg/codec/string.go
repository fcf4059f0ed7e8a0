package codec

import "strings"

// StringCodec stores string keys verbatim; byte order matches Go's native
// string comparison, so Compare just delegates to strings.Compare.
type StringCodec struct{}

// NewStringCodec returns a ready-to-use StringCodec.
func NewStringCodec() StringCodec { return StringCodec{} }

func (StringCodec) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (StringCodec) Decode(data []byte) (string, error) {
	return string(data), nil
}

func (StringCodec) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// BytesCodec stores []byte keys verbatim, comparing lexicographically.
type BytesCodec struct{}

// NewBytesCodec returns a ready-to-use BytesCodec.
func NewBytesCodec() BytesCodec { return BytesCodec{} }

func (BytesCodec) Encode(value []byte) ([]byte, error) {
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (BytesCodec) Decode(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (BytesCodec) Compare(a, b []byte) int {
	return compareBytes(a, b)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
