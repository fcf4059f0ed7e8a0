package bptree

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTree_ConcurrentInsertSearch mirrors the teacher's concurrent
// insert/search suite: many goroutines add disjoint values at once, then,
// once every add has finished, many goroutines search for those values at
// once, none of them coordinating beyond the tree's own locking.
func TestTree_ConcurrentInsertSearch(t *testing.T) {
	tree := newUintTree(t, 5)
	const goroutines = 10
	const perGoroutine = 20

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v := uint64(id*perGoroutine + i)
				require.NoError(t, tree.Add(v))
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v := uint64(id*perGoroutine + i)
				got, ok, err := tree.Find(v)
				assert.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, v, got)
			}
		}(g)
	}
	wg.Wait()
}

// TestTree_ConcurrentInsertDelete inserts and deletes disjoint value ranges
// from separate goroutines at the same time, then checks that every deleted
// value is gone and every newly inserted value is present.
func TestTree_ConcurrentInsertDelete(t *testing.T) {
	tree := newUintTree(t, 4)
	for v := uint64(0); v < 100; v++ {
		require.NoError(t, tree.Add(v))
	}

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			lo := uint64(id * 10)
			_, err := tree.Delete(lo, lo+1, lo+2)
			assert.NoError(t, err)
		}(g)
	}
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			require.NoError(t, tree.Add(uint64(1000+id)))
		}(g)
	}
	wg.Wait()

	for id := 0; id < 10; id++ {
		lo := uint64(id * 10)
		for _, v := range []uint64{lo, lo + 1, lo + 2} {
			_, ok, err := tree.Find(v)
			assert.NoError(t, err)
			assert.False(t, ok, "value %d should have been deleted", v)
		}
	}
	for id := 0; id < 10; id++ {
		_, ok, err := tree.Find(uint64(1000 + id))
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}

// TestTree_ConcurrentReadDuringWrite covers the spec's rule that readers
// never block on the writer lock: a long run of inserts proceeds on one
// goroutine while another goroutine repeatedly iterates the tree, and every
// walk it makes stays in ascending order; once the inserts finish, Find
// locates every inserted value.
func TestTree_ConcurrentReadDuringWrite(t *testing.T) {
	tree := newUintTree(t, 5)
	const total = 300

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for v := uint64(0); v < total; v++ {
			require.NoError(t, tree.Add(v))
		}
	}()

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			it, err := tree.Iterator()
			if err != nil {
				continue
			}
			var prev uint64
			first := true
			for {
				v, ok, err := it.Next()
				assert.NoError(t, err)
				if !ok {
					break
				}
				if !first {
					assert.LessOrEqual(t, prev, v)
				}
				prev, first = v, false
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	for v := uint64(0); v < total; v++ {
		got, ok, err := tree.Find(v)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}
