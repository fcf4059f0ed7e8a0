package index

import (
	"path/filepath"
	"testing"

	"github.com/ssargent/bptreeidx/pkg/bptree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecondaryIndex(t *testing.T) {
	idx := NewSecondaryIndex("test_field", 3)

	assert.NotNil(t, idx)
	assert.Equal(t, "test_field", idx.fieldName)
	assert.NotNil(t, idx.tree)
}

func TestSecondaryIndex_Insert(t *testing.T) {
	idx := NewSecondaryIndex("name", 3)

	primaryKey1 := []byte("user_123")
	primaryKey2 := []byte("user_456")

	err := idx.Insert("Alice", primaryKey1)
	require.NoError(t, err)

	err = idx.Insert("Bob", primaryKey2)
	require.NoError(t, err)

	key := idx.createIndexKey("Alice", primaryKey1)
	_, ok, err := idx.tree.Find(key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSecondaryIndex_InsertDuplicateFieldValue(t *testing.T) {
	idx := NewSecondaryIndex("category", 3)

	primaryKey1 := []byte("item_1")
	primaryKey2 := []byte("item_2")

	err := idx.Insert("electronics", primaryKey1)
	require.NoError(t, err)

	err = idx.Insert("electronics", primaryKey2)
	require.NoError(t, err)

	key1 := idx.createIndexKey("electronics", primaryKey1)
	key2 := idx.createIndexKey("electronics", primaryKey2)
	_, ok1, err := idx.tree.Find(key1)
	require.NoError(t, err)
	_, ok2, err := idx.tree.Find(key2)
	require.NoError(t, err)
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestSecondaryIndex_Delete(t *testing.T) {
	idx := NewSecondaryIndex("email", 3)

	primaryKey := []byte("user_123")

	err := idx.Insert("alice@example.com", primaryKey)
	require.NoError(t, err)

	deleted := idx.Delete("alice@example.com", primaryKey)
	assert.True(t, deleted)

	deleted = idx.Delete("alice@example.com", primaryKey)
	assert.False(t, deleted)
}

func TestSecondaryIndex_SearchRange(t *testing.T) {
	idx := NewSecondaryIndex("age", 3)

	users := map[int][]byte{
		25: []byte("user_25"),
		30: []byte("user_30"),
	}

	for age, primaryKey := range users {
		err := idx.Insert(age, primaryKey)
		require.NoError(t, err)
	}

	assert.NotNil(t, idx.tree)

	_, err := idx.SearchRange(20, 35)
	assert.ErrorIs(t, err, bptree.ErrNotImplemented)
}

func TestSecondaryIndex_SearchFailsLoudly(t *testing.T) {
	idx := NewSecondaryIndex("name", 3)
	require.NoError(t, idx.Insert("Alice", []byte("user_1")))

	_, err := idx.Search("Alice")
	assert.ErrorIs(t, err, bptree.ErrNotImplemented)
}

func TestSecondaryIndex_SaveLoad(t *testing.T) {
	idx := NewSecondaryIndex("test_field", 3)

	err := idx.Insert("value1", []byte("key1"))
	require.NoError(t, err)

	tmpDir := t.TempDir()

	err = idx.Save(tmpDir)
	require.NoError(t, err)

	expectedFile := filepath.Join(tmpDir, "index_test_field.dat")
	assert.FileExists(t, expectedFile)

	newIdx := NewSecondaryIndex("test_field", 3)
	err = newIdx.Load(tmpDir)
	require.NoError(t, err)

	key := idx.createIndexKey("value1", []byte("key1"))
	_, ok, err := newIdx.tree.Find(key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSecondaryIndex_LoadNonExistent(t *testing.T) {
	idx := NewSecondaryIndex("nonexistent", 3)

	tmpDir := t.TempDir()

	err := idx.Load(tmpDir)
	assert.NoError(t, err)
}

func TestSecondaryIndex_DataTypeSerialization(t *testing.T) {
	idx := NewSecondaryIndex("mixed_types", 3)

	testCases := []struct {
		fieldValue interface{}
		primaryKey []byte
	}{
		{int(42), []byte("int_key")},
		{int64(123456789), []byte("int64_key")},
		{float64(3.14159), []byte("float_key")},
		{"string_value", []byte("string_key")},
	}

	for _, tc := range testCases {
		err := idx.Insert(tc.fieldValue, tc.primaryKey)
		require.NoError(t, err)
	}

	assert.NotNil(t, idx.tree)
}

func TestIndexManager_GetOrCreateIndex(t *testing.T) {
	manager := NewIndexManager(3)

	idx1 := manager.GetOrCreateIndex("field1")
	assert.NotNil(t, idx1)
	assert.Equal(t, "field1", idx1.fieldName)

	idx2 := manager.GetOrCreateIndex("field1")
	assert.Equal(t, idx1, idx2)

	idx3 := manager.GetOrCreateIndex("field2")
	assert.NotNil(t, idx3)
	assert.Equal(t, "field2", idx3.fieldName)
	assert.NotEqual(t, idx1, idx3)
}

func TestIndexManager_SaveLoadAll(t *testing.T) {
	manager := NewIndexManager(3)

	idx1 := manager.GetOrCreateIndex("name")
	idx2 := manager.GetOrCreateIndex("age")

	err := idx1.Insert("Alice", []byte("user_1"))
	require.NoError(t, err)

	err = idx2.Insert(25, []byte("user_1"))
	require.NoError(t, err)

	tmpDir := t.TempDir()

	err = manager.SaveAll(tmpDir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(tmpDir, "index_name.dat"))
	assert.FileExists(t, filepath.Join(tmpDir, "index_age.dat"))

	newManager := NewIndexManager(3)
	err = newManager.LoadAll(tmpDir)
	require.NoError(t, err)
	assert.Len(t, newManager.indexes, 2)
}

func TestIndexManager_LoadAll_EmptyDirectory(t *testing.T) {
	manager := NewIndexManager(3)

	tmpDir := t.TempDir()

	err := manager.LoadAll(tmpDir)
	assert.NoError(t, err)
}

func TestSecondaryIndex_EdgeCases(t *testing.T) {
	idx := NewSecondaryIndex("edge_cases", 3)

	err := idx.Insert("", []byte("empty_key"))
	require.NoError(t, err)

	longString := string(make([]byte, 100))
	err = idx.Insert(longString, []byte("long_key"))
	require.NoError(t, err)

	err = idx.Insert(0, []byte("zero_int"))
	require.NoError(t, err)

	assert.NotNil(t, idx.tree)
}
