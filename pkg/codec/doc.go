// Record format
//
// Every codec in this package encodes a single ordered key value, not a
// key-value pair with a header: there is no CRC, no timestamp, no envelope.
// Framing (how many bytes a given encoded value occupies) is the caller's
// responsibility — the tree's node format prefixes every value with its own
// length (see pkg/bptree) because values are variable-width for codecs like
// StringCodec and BytesCodec.
//
// Usage
//
//	c := codec.NewUint64Codec()
//	raw, err := c.Encode(42)
//	v, err := c.Decode(raw)
//	c.Compare(v, 42) == 0
//
// Thread safety
//
// All codecs in this package are stateless and safe for concurrent use.
package codec
