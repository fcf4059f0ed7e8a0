package bptree

import "encoding/binary"

// Position addresses a node record inside the storage file it was appended
// to. FileNumber exists for a future multi-file storage layout; this
// implementation only ever writes to file 0.
type Position struct {
	FileNumber int64
	Offset     int64
}

// NoPosition is the sentinel written for an absent child: a leaf's missing
// left/right pointers, or a freshly built node that has not been flushed
// yet and therefore has no position at all.
var NoPosition = Position{FileNumber: -1, Offset: -1}

// IsAbsent reports whether p is the sentinel "no position" value.
func (p Position) IsAbsent() bool {
	return p == NoPosition
}

func writePosition(buf []byte, p Position) {
	binary.BigEndian.PutUint64(buf[0:8], uint64(p.FileNumber))
	binary.BigEndian.PutUint64(buf[8:16], uint64(p.Offset))
}

func readPosition(buf []byte) Position {
	return Position{
		FileNumber: int64(binary.BigEndian.Uint64(buf[0:8])),
		Offset:     int64(binary.BigEndian.Uint64(buf[8:16])),
	}
}

const positionByteWidth = 16
