package bptree

import (
	"testing"

	"github.com/ssargent/bptreeidx/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, tree *Tree[uint64]) []uint64 {
	t.Helper()
	it, err := tree.Iterator()
	require.NoError(t, err)

	var out []uint64
	for {
		v, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

func TestIterator_EmptyTreeYieldsNothing(t *testing.T) {
	tree := newUintTree(t, 3)
	assert.Nil(t, drain(t, tree))
}

func TestIterator_VisitsInAscendingOrderAcrossSplits(t *testing.T) {
	tree := newUintTree(t, 3)
	for _, v := range []uint64{40, 20, 60, 10, 30, 50, 70} {
		require.NoError(t, tree.Add(v))
	}

	assert.Equal(t, []uint64{10, 20, 30, 40, 50, 60, 70}, drain(t, tree))
}

func TestIterator_SkipsDeletedKeys(t *testing.T) {
	tree := newUintTree(t, 3)
	for _, v := range []uint64{1, 2, 3, 4, 5} {
		require.NoError(t, tree.Add(v))
	}
	_, err := tree.Delete(2, 4)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 3, 5}, drain(t, tree))
}

func TestIterator_LargeRandomishSequenceStaysSorted(t *testing.T) {
	tree, err := Open(Options[uint64]{Degree: 4, Codec: codec.NewUint64Codec()})
	require.NoError(t, err)

	values := []uint64{}
	for i := uint64(0); i < 500; i++ {
		v := (i * 97) % 500
		values = append(values, v)
		require.NoError(t, tree.Add(v))
	}

	got := drain(t, tree)
	require.Len(t, got, len(values))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1], got[i])
	}
}

func TestIterator_ToleratesInsertsAfterItStarted(t *testing.T) {
	tree := newUintTree(t, 4)
	for _, v := range []uint64{1, 2, 3} {
		require.NoError(t, tree.Add(v))
	}

	it, err := tree.Iterator()
	require.NoError(t, err)

	first, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), first)

	// A write happening mid-iteration must not corrupt the walk: it may or
	// may not be observed by this iterator, but later values must stay
	// monotonic.
	require.NoError(t, tree.Add(100))

	var rest []uint64
	for {
		v, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rest = append(rest, v)
	}
	for i := 1; i < len(rest); i++ {
		assert.LessOrEqual(t, rest[i-1], rest[i])
	}
}
