package bptree

import (
	"path/filepath"
	"testing"

	"github.com/ssargent/bptreeidx/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_PersistentBootstrapWritesMetadataImmediately(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "tree.meta")

	tree, err := Open(Options[uint64]{Degree: 4, Codec: codec.NewUint64Codec(), MetadataPath: metaPath})
	require.NoError(t, err)
	defer tree.Close()

	_, exists, err := readMetadata(metaPath)
	require.NoError(t, err)
	assert.True(t, exists, "metadata must exist right after bootstrap, before any Add")
}

func TestTree_ReopenRestoresInsertedValues(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "tree.meta")

	tree, err := Open(Options[uint64]{Degree: 3, Codec: codec.NewUint64Codec(), MetadataPath: metaPath})
	require.NoError(t, err)
	for _, v := range []uint64{10, 20, 30, 40, 50, 60, 70} {
		require.NoError(t, tree.Add(v))
	}
	require.NoError(t, tree.Close())

	reopened, err := Open(Options[uint64]{Degree: 3, Codec: codec.NewUint64Codec(), MetadataPath: metaPath})
	require.NoError(t, err)
	defer reopened.Close()

	for _, v := range []uint64{10, 20, 30, 40, 50, 60, 70} {
		got, ok, err := reopened.Find(v)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}

	assert.Equal(t, []uint64{10, 20, 30, 40, 50, 60, 70}, drain(t, reopened))
}

// TestTree_ReopenDegreeFromMetadataOverridesBuilder covers scenario S7:
// a tree persisted with one degree, reopened with a different builder
// degree, must keep the persisted degree and traverse its existing data
// intact rather than erroring out.
func TestTree_ReopenDegreeFromMetadataOverridesBuilder(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "tree.meta")

	tree, err := Open(Options[uint64]{Degree: 100, Codec: codec.NewUint64Codec(), MetadataPath: metaPath})
	require.NoError(t, err)
	for v := uint64(1); v <= 1000; v++ {
		require.NoError(t, tree.Add(v))
	}
	require.NoError(t, tree.Close())

	reopened, err := Open(Options[uint64]{Degree: 3, Codec: codec.NewUint64Codec(), MetadataPath: metaPath})
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 100, reopened.Degree())

	got := drain(t, reopened)
	require.Len(t, got, 1000)
	for i, v := range got {
		assert.Equal(t, uint64(i+1), v)
	}
}

func TestTree_BoundedCacheEvictsResidentNodes(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "tree.meta")

	tree, err := Open(Options[uint64]{Degree: 3, Codec: codec.NewUint64Codec(), MetadataPath: metaPath, CacheSize: 2})
	require.NoError(t, err)
	defer tree.Close()

	for v := uint64(0); v < 50; v++ {
		require.NoError(t, tree.Add(v))
	}

	assert.LessOrEqual(t, tree.cache.len(), 2)

	// Values must still be findable after their nodes have been evicted
	// from the cache: Find must reload them from storage.
	got, ok, err := tree.Find(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(0), got)
}
