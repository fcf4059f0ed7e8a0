// Package index builds secondary indexes over a primary data set using
// bptree.Tree as the ordered backing store: one tree per indexed field,
// keyed by a composite of the field's value and the primary key.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ssargent/bptreeidx/pkg/bptree"
	"github.com/ssargent/bptreeidx/pkg/codec"
)

// SecondaryIndex maintains an ordered index for a single field.
type SecondaryIndex struct {
	fieldName string
	degree    int
	tree      *bptree.Tree[[]byte]
	mutex     sync.RWMutex
}

// NewSecondaryIndex creates a new, in-memory secondary index for a field.
func NewSecondaryIndex(fieldName string, degree int) *SecondaryIndex {
	tree, err := bptree.Open(bptree.Options[[]byte]{Degree: degree, Codec: codec.NewBytesCodec()})
	if err != nil {
		// An in-memory tree only fails to open for a degree below 2.
		// Neither NewSecondaryIndex nor NewIndexManager checks the degree
		// it is given, so such a degree ends up here.
		panic(fmt.Sprintf("index: unexpected failure opening in-memory tree: %v", err))
	}
	return &SecondaryIndex{
		fieldName: fieldName,
		degree:    degree,
		tree:      tree,
	}
}

// Insert adds a record to the secondary index. The index key is
// field_value + primary_key, so distinct records with the same field value
// never collide.
func (idx *SecondaryIndex) Insert(fieldValue interface{}, primaryKey []byte) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	indexKey := idx.createIndexKey(fieldValue, primaryKey)
	return idx.tree.Add(indexKey)
}

// Delete removes a record from the secondary index, reporting whether a
// matching entry was present.
func (idx *SecondaryIndex) Delete(fieldValue interface{}, primaryKey []byte) bool {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	indexKey := idx.createIndexKey(fieldValue, primaryKey)
	n, err := idx.tree.Delete(indexKey)
	return err == nil && n > 0
}

// Search finds records with an exact field value match. Field-value
// matching requires a prefix scan over the underlying tree, which this
// tree does not support: it fails loudly via bptree.ErrNotImplemented
// rather than silently returning no results.
func (idx *SecondaryIndex) Search(fieldValue interface{}) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	lo := idx.createFieldPrefix(fieldValue)
	hi := append(append([]byte{}, lo...), 0xFF)
	// Range always fails with bptree.ErrNotImplemented, and that error is
	// returned as is. Search never reads the iterator Range returns, so it
	// returns no results even when err is nil.
	_, err := idx.tree.Range(lo, hi)
	return nil, err
}

// SearchRange finds records within a field value range. Like Search, this
// requires range-scan support the underlying tree does not provide.
func (idx *SecondaryIndex) SearchRange(startValue, endValue interface{}) ([][]byte, error) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	lo := idx.createFieldPrefix(startValue)
	hi := idx.createFieldPrefix(endValue)
	// Range always fails with bptree.ErrNotImplemented, and that error is
	// returned as is. SearchRange never reads the iterator Range returns,
	// so it returns no results even when err is nil.
	_, err := idx.tree.Range(lo, hi)
	return nil, err
}

// Save persists a snapshot of the index to dir by replaying its live
// entries into a fresh, persistent tree rooted there, replacing any
// snapshot of this field saved there before.
func (idx *SecondaryIndex) Save(dir string) error {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	metaPath := idx.metadataPath(dir)
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset index storage for field %s: %w", idx.fieldName, err)
	}
	snapshot, err := bptree.Open(bptree.Options[[]byte]{
		Degree:       idx.degree,
		Codec:        codec.NewBytesCodec(),
		MetadataPath: metaPath,
		StorageDir:   dir,
		StorageFile:  fmt.Sprintf("index_%s.nodes", idx.fieldName),
	})
	if err != nil {
		return fmt.Errorf("failed to open index storage for field %s: %w", idx.fieldName, err)
	}
	defer snapshot.Close()

	it, err := idx.tree.Iterator()
	if err != nil {
		return fmt.Errorf("failed to walk index for field %s: %w", idx.fieldName, err)
	}
	for {
		key, ok, err := it.Next()
		if err != nil {
			return fmt.Errorf("failed to walk index for field %s: %w", idx.fieldName, err)
		}
		if !ok {
			break
		}
		if err := snapshot.Add(key); err != nil {
			return fmt.Errorf("failed to persist index entry for field %s: %w", idx.fieldName, err)
		}
	}

	return snapshot.Flush()
}

// Load restores the index from disk, replacing the current in-memory tree
// with the persisted one. It is not an error for dir to have no saved
// index yet: the index is simply left as it was.
func (idx *SecondaryIndex) Load(dir string) error {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	metaPath := idx.metadataPath(dir)
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return nil
	}

	tree, err := bptree.Open(bptree.Options[[]byte]{
		Degree:       idx.degree,
		Codec:        codec.NewBytesCodec(),
		MetadataPath: metaPath,
	})
	if err != nil {
		return fmt.Errorf("failed to load index for field %s: %w", idx.fieldName, err)
	}

	idx.tree = tree
	return nil
}

func (idx *SecondaryIndex) metadataPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("index_%s.dat", idx.fieldName))
}

// createIndexKey creates a composite key: field_value + primary_key.
func (idx *SecondaryIndex) createIndexKey(fieldValue interface{}, primaryKey []byte) []byte {
	var buf bytes.Buffer
	idx.serializeValue(&buf, fieldValue)
	buf.Write(primaryKey)
	return buf.Bytes()
}

// createFieldPrefix creates a key prefix for field value matching.
func (idx *SecondaryIndex) createFieldPrefix(fieldValue interface{}) []byte {
	var buf bytes.Buffer
	idx.serializeValue(&buf, fieldValue)
	return buf.Bytes()
}

// serializeValue serializes different value types for indexing, ordering
// values of the same type lexicographically by a leading type marker.
func (idx *SecondaryIndex) serializeValue(buf *bytes.Buffer, value interface{}) {
	switch v := value.(type) {
	case int:
		buf.WriteByte(0)
		binary.Write(buf, binary.BigEndian, int64(v))
	case int64:
		buf.WriteByte(0)
		binary.Write(buf, binary.BigEndian, v)
	case float64:
		buf.WriteByte(1)
		binary.Write(buf, binary.BigEndian, v)
	case string:
		buf.WriteByte(2)
		buf.WriteString(v)
		buf.WriteByte(0)
	default:
		buf.WriteByte(2)
		buf.WriteString(fmt.Sprintf("%v", v))
		buf.WriteByte(0)
	}
}

// IndexManager manages multiple secondary indexes for a partition.
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	degree  int
}

// NewIndexManager creates a new index manager.
func NewIndexManager(degree int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		degree:  degree,
	}
}

// GetOrCreateIndex gets an existing index or creates a new one for a field.
func (im *IndexManager) GetOrCreateIndex(fieldName string) *SecondaryIndex {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[fieldName]; exists {
		return idx
	}

	idx := NewSecondaryIndex(fieldName, im.degree)
	im.indexes[fieldName] = idx
	return idx
}

// SaveAll saves all indexes to disk.
func (im *IndexManager) SaveAll(dir string) error {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	for _, idx := range im.indexes {
		if err := idx.Save(dir); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads all indexes from disk.
func (im *IndexManager) LoadAll(dir string) error {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	pattern := filepath.Join(dir, "index_*.dat")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, file := range files {
		filename := filepath.Base(file)
		if len(filename) < 10 {
			continue
		}

		fieldName := filename[6 : len(filename)-4]

		idx := NewSecondaryIndex(fieldName, im.degree)
		if err := idx.Load(dir); err != nil {
			return err
		}

		im.indexes[fieldName] = idx
	}

	return nil
}
