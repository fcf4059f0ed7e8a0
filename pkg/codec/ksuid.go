package codec

import "github.com/segmentio/ksuid"

// KSUIDCodec stores ksuid.KSUID values using their native fixed 20-byte
// wire form. KSUIDs are lexicographically sortable by construction
// (timestamp-prefixed), so byte comparison matches creation order to the
// second; KSUIDs created within the same second order by their random
// payload.
type KSUIDCodec struct{}

// NewKSUIDCodec returns a ready-to-use KSUIDCodec.
func NewKSUIDCodec() KSUIDCodec { return KSUIDCodec{} }

func (KSUIDCodec) Encode(value ksuid.KSUID) ([]byte, error) {
	b := value.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (KSUIDCodec) Decode(data []byte) (ksuid.KSUID, error) {
	if len(data) < ksuid.ByteLength {
		return ksuid.Nil, ErrShortBuffer
	}
	return ksuid.FromBytes(data[:ksuid.ByteLength])
}

func (KSUIDCodec) Compare(a, b ksuid.KSUID) int {
	return compareBytes(a.Bytes(), b.Bytes())
}
