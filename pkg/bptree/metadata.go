package bptree

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// metadata is the small, fixed-order file that pins a tree's root position
// and degree, plus where its node storage file lives: storage directory
// path, storage file name, root file number, root offset, degree.
type metadata struct {
	StorageDir  string
	StorageFile string
	Root        Position
	Degree      int
}

func encodeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func decodeString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeMetadata(m metadata) []byte {
	var buf bytes.Buffer
	encodeString(&buf, m.StorageDir)
	encodeString(&buf, m.StorageFile)

	var posBuf [positionByteWidth]byte
	writePosition(posBuf[:], m.Root)
	buf.Write(posBuf[:])

	var degreeBuf [4]byte
	binary.BigEndian.PutUint32(degreeBuf[:], uint32(m.Degree))
	buf.Write(degreeBuf[:])

	return buf.Bytes()
}

func decodeMetadata(r io.Reader) (metadata, error) {
	var m metadata
	var err error

	if m.StorageDir, err = decodeString(r); err != nil {
		return metadata{}, err
	}
	if m.StorageFile, err = decodeString(r); err != nil {
		return metadata{}, err
	}

	var posBuf [positionByteWidth]byte
	if _, err := io.ReadFull(r, posBuf[:]); err != nil {
		return metadata{}, err
	}
	m.Root = readPosition(posBuf[:])

	var degreeBuf [4]byte
	if _, err := io.ReadFull(r, degreeBuf[:]); err != nil {
		return metadata{}, err
	}
	m.Degree = int(binary.BigEndian.Uint32(degreeBuf[:]))

	return m, nil
}

// readMetadata loads the metadata file at path, or returns (metadata{},
// false, nil) if it does not exist yet.
func readMetadata(path string) (metadata, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return metadata{}, false, nil
		}
		return metadata{}, false, errors.Wrapf(err, "bptree: read metadata %s", path)
	}
	m, err := decodeMetadata(bytes.NewReader(data))
	if err != nil {
		return metadata{}, false, errors.Wrapf(err, "bptree: decode metadata %s", path)
	}
	return m, true, nil
}

// writeMetadata writes m to path via a temp-file-plus-rename so a reader
// never observes a partially written metadata file.
func writeMetadata(path string, m metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "bptree: create metadata directory for %s", path)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encodeMetadata(m), 0o600); err != nil {
		return errors.Wrapf(err, "bptree: write metadata temp file %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "bptree: rename metadata temp file into place at %s", path)
	}
	return nil
}
