package bptree

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ssargent/bptreeidx/pkg/codec"
)

// Node storage record format:
//
//	leaf flag     (1 byte: 1 = leaf, 0 = interior)
//	key count     (4 bytes, big-endian int32)
//	for each key, in order:
//	  value length (4 bytes, big-endian uint32)
//	  value bytes
//	  left position  (16 bytes: 8-byte file number + 8-byte offset; sentinel -1,-1 if absent)
//	  right position (16 bytes; sentinel if absent)
//	  deleted flag   (1 byte)
//
// Interior nodes never persist their children slice directly: a key's right
// position and the following key's left position are always the same
// value, so decode reconstructs the children slice from key[i].right alone
// (plus key[0].left for the very first child).
func encodeNode[T any](n *Node[T], kc codec.KeyCodec[T]) ([]byte, error) {
	var buf bytes.Buffer

	if n.leaf {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(n.keys)))
	buf.Write(countBuf[:])

	for i, k := range n.keys {
		value, err := kc.Encode(k.value)
		if err != nil {
			return nil, ioErr(err, "bptree: encode key value")
		}

		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
		buf.Write(lenBuf[:])
		buf.Write(value)

		var posBuf [positionByteWidth]byte
		leftPos := NoPosition
		rightPos := NoPosition
		if !n.leaf {
			if p, ok := n.children[i].Position(); ok {
				leftPos = p
			} else {
				return nil, ioErr(nil, "bptree: encode node: child %d has no position", i)
			}
			if p, ok := n.children[i+1].Position(); ok {
				rightPos = p
			} else {
				return nil, ioErr(nil, "bptree: encode node: child %d has no position", i+1)
			}
		}
		writePosition(posBuf[:], leftPos)
		buf.Write(posBuf[:])
		writePosition(posBuf[:], rightPos)
		buf.Write(posBuf[:])

		if k.deleted {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	return buf.Bytes(), nil
}

func decodeNode[T any](r io.Reader, tree *Tree[T]) (*Node[T], error) {
	var leafFlag [1]byte
	if _, err := io.ReadFull(r, leafFlag[:]); err != nil {
		return nil, ioErr(err, "bptree: decode node: read leaf flag")
	}
	leaf := leafFlag[0] == 1

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, ioErr(err, "bptree: decode node: read key count")
	}
	count := int(binary.BigEndian.Uint32(countBuf[:]))

	keys := make([]*Key[T], count)
	leftPositions := make([]Position, count)
	rightPositions := make([]Position, count)

	for i := 0; i < count; i++ {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, ioErr(err, "bptree: decode node: read value length")
		}
		valueLen := int(binary.BigEndian.Uint32(lenBuf[:]))

		value := make([]byte, valueLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return nil, ioErr(err, "bptree: decode node: read value bytes")
		}
		decoded, err := tree.codec.Decode(value)
		if err != nil {
			return nil, ioErr(err, "bptree: decode node: decode key value")
		}

		var posBuf [positionByteWidth]byte
		if _, err := io.ReadFull(r, posBuf[:]); err != nil {
			return nil, ioErr(err, "bptree: decode node: read left position")
		}
		leftPositions[i] = readPosition(posBuf[:])

		if _, err := io.ReadFull(r, posBuf[:]); err != nil {
			return nil, ioErr(err, "bptree: decode node: read right position")
		}
		rightPositions[i] = readPosition(posBuf[:])

		var deletedBuf [1]byte
		if _, err := io.ReadFull(r, deletedBuf[:]); err != nil {
			return nil, ioErr(err, "bptree: decode node: read deleted flag")
		}

		keys[i] = &Key[T]{value: decoded, deleted: deletedBuf[0] == 1}
	}

	if leaf {
		return newLeafNode(keys), nil
	}

	children := make([]*NodeRef[T], count+1)
	if count > 0 {
		children[0] = newPersistentNodeRef[T](tree, leftPositions[0])
		for i := 0; i < count; i++ {
			children[i+1] = newPersistentNodeRef[T](tree, rightPositions[i])
		}
	}
	return newInternalNode(keys, children), nil
}
