// Package storage implements the append-only, positionally-addressed node
// storage file the tree's save queue flushes into. It never interprets the
// bytes it stores — that is pkg/bptree's job — it only hands out stable
// byte offsets for appended records and lets callers read back from any
// previously returned offset.
package storage

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrClosed is returned by Append, ReaderAt, Size, and Sync once Close has
// been called.
var ErrClosed = errors.New("storage: already closed")

// Storage is the append-only byte store a tree's node records are written
// to and read back from.
type Storage interface {
	// Append writes data at the current end of the file and returns the
	// byte offset it was written at.
	Append(data []byte) (int64, error)
	// ReaderAt returns a reader positioned at offset, able to read through
	// to the current end of the file. It is safe to call concurrently with
	// Append and with other ReaderAt calls.
	ReaderAt(offset int64) (io.Reader, error)
	// Size reports the current length of the file in bytes.
	Size() (int64, error)
	// Sync flushes any buffered bytes and fsyncs the underlying file.
	Sync() error
	// Path returns the file path backing this storage.
	Path() string
	// Close flushes, syncs, and closes the underlying file.
	Close() error
}

// FileStorage is the default Storage: a single append-only OS file, grounded
// on the same buffered-writer-plus-tracked-offset shape as a Bitcask-style
// log writer, adapted here to store framed node records instead of
// key/value log records.
type FileStorage struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	offset int64
	path   string
	closed bool
}

// Open creates (or reopens, positioned at its current end) the node storage
// file at path.
func Open(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.Wrapf(err, "storage: create directory for %s", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open %s", path)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "storage: stat %s", path)
	}

	return &FileStorage{
		file:   file,
		writer: bufio.NewWriter(file),
		offset: stat.Size(),
		path:   path,
	}, nil
}

// Append implements Storage.
func (s *FileStorage) Append(data []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	recordOffset := s.offset
	n, err := s.writer.Write(data)
	if err != nil {
		return 0, errors.Wrap(err, "storage: append")
	}
	s.offset += int64(n)

	if err := s.writer.Flush(); err != nil {
		return 0, errors.Wrap(err, "storage: flush")
	}
	if err := s.file.Sync(); err != nil {
		return 0, errors.Wrap(err, "storage: fsync")
	}

	return recordOffset, nil
}

// ReaderAt implements Storage. Reads go straight to the OS file via pread
// (os.File.ReadAt), independent of the shared write cursor, so concurrent
// reads never race with Append or with each other.
func (s *FileStorage) ReaderAt(offset int64) (io.Reader, error) {
	s.mu.Lock()
	closed := s.closed
	size := s.offset
	s.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if offset < 0 || offset > size {
		return nil, errors.Newf("storage: offset %d out of range [0,%d]", offset, size)
	}

	return io.NewSectionReader(s.file, offset, size-offset), nil
}

// Size implements Storage.
func (s *FileStorage) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.offset, nil
}

// Sync implements Storage.
func (s *FileStorage) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.writer.Flush(); err != nil {
		return errors.Wrap(err, "storage: flush")
	}
	return errors.Wrap(s.file.Sync(), "storage: fsync")
}

// Path implements Storage.
func (s *FileStorage) Path() string {
	return s.path
}

// Close implements Storage.
func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.writer.Flush(); err != nil {
		_ = s.file.Close()
		return errors.Wrap(err, "storage: flush on close")
	}
	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return errors.Wrap(err, "storage: fsync on close")
	}
	return errors.Wrap(s.file.Close(), "storage: close")
}
