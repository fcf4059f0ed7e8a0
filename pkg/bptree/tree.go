// Package bptree implements an ordered, disk-persistent B-tree index: a
// generic, totally-ordered key set with lazy-loaded nodes, an in-order
// iterator that tolerates concurrent inserts, and an append-only storage
// format addressed by byte position.
package bptree

import (
	"path/filepath"
	"sync"

	"github.com/ssargent/bptreeidx/pkg/codec"
	"github.com/ssargent/bptreeidx/pkg/storage"
)

// Options configures a Tree at construction time.
type Options[T any] struct {
	// Degree is the tree's branching factor: a node is split once it
	// holds Degree keys. Must be >= 2. Ignored (the degree recorded in the
	// metadata file is used instead) when reopening an existing tree.
	Degree int

	// Codec turns T values into bytes and back, and defines their order.
	Codec codec.KeyCodec[T]

	// MetadataPath, if non-empty, makes the tree persistent: node records
	// are appended to a storage file and the root position is pinned in
	// the metadata file at this path. Leave empty for an in-memory-only
	// tree.
	MetadataPath string

	// StorageDir and StorageFile locate the node storage file for a new,
	// persistent tree. Ignored (the values already recorded in the
	// metadata file are used instead) when reopening an existing tree.
	// Default to MetadataPath's directory and "nodes.dat".
	StorageDir  string
	StorageFile string

	// CacheSize bounds how many resident nodes stay in memory at once.
	// Zero disables the cache: nodes are never evicted once loaded.
	CacheSize int
}

// Tree is an ordered, optionally disk-persistent B-tree index over keys of
// type T.
type Tree[T any] struct {
	rootMu sync.RWMutex
	root   *NodeRef[T]

	degree int
	codec  codec.KeyCodec[T]

	persistent   bool
	storage      storage.Storage
	metadataPath string
	storageDir   string
	storageFile  string

	// writeMonitor serializes Add, Delete, and Flush: at most one write is
	// in flight tree-wide. Find and Iterator never acquire it.
	writeMonitor sync.Mutex
	// metadataMonitor serializes metadata file writes, independent of
	// writeMonitor so a read of the metadata file (not implemented as a
	// public op, but available internally) never has to wait on a write
	// it doesn't depend on.
	metadataMonitor sync.Mutex

	saveQueue *saveQueue[T]
	cache     *nodeCache[T]
}

// Open constructs a tree per opts. For a persistent tree whose metadata
// file already exists, this reopens the existing tree, reading its root,
// storage location, and degree back from that file — opts.Degree is only
// a starting-point hint and is overridden by whatever degree the tree was
// first created with, since every node already on disk was split to that
// width. Otherwise Open bootstraps a fresh tree at opts.Degree, writing the
// initial empty-root metadata immediately.
func Open[T any](opts Options[T]) (*Tree[T], error) {
	if opts.Degree < 2 {
		return nil, configErr("bptree: degree must be >= 2, got %d", opts.Degree)
	}
	if opts.Codec == nil {
		return nil, configErr("bptree: a codec is required")
	}

	tree := &Tree[T]{
		degree:    opts.Degree,
		codec:     opts.Codec,
		saveQueue: newSaveQueue[T](),
	}
	if opts.CacheSize > 0 {
		tree.cache = newNodeCache[T](opts.CacheSize)
	}

	if opts.MetadataPath == "" {
		tree.root = newFreshNodeRef[T](tree, newLeafNode[T](nil))
		return tree, nil
	}

	tree.persistent = true
	tree.metadataPath = opts.MetadataPath

	meta, exists, err := readMetadata(opts.MetadataPath)
	if err != nil {
		return nil, ioErr(err, "bptree: open metadata")
	}

	storageDir := opts.StorageDir
	storageFile := opts.StorageFile
	if exists {
		// The persisted degree overrides whatever the builder asked for:
		// a tree's branching factor is fixed at the moment it was first
		// created, and every node already on disk was split accordingly.
		tree.degree = meta.Degree
		storageDir = meta.StorageDir
		storageFile = meta.StorageFile
	} else {
		if storageDir == "" {
			storageDir = filepath.Dir(opts.MetadataPath)
		}
		if storageFile == "" {
			storageFile = "nodes.dat"
		}
	}
	tree.storageDir = storageDir
	tree.storageFile = storageFile

	st, err := storage.Open(filepath.Join(storageDir, storageFile))
	if err != nil {
		return nil, ioErr(err, "bptree: open node storage")
	}
	tree.storage = st

	if !exists {
		tree.root = newFreshNodeRef[T](tree, newLeafNode[T](nil))
		tree.saveQueue.enqueue(tree.root)
		if err := tree.doFlush(); err != nil {
			return nil, err
		}
		return tree, nil
	}

	tree.root = newPersistentNodeRef[T](tree, meta.Root)
	return tree, nil
}

// Close releases resources held by a persistent tree. It is a no-op for an
// in-memory tree.
func (t *Tree[T]) Close() error {
	if !t.persistent {
		return nil
	}
	return t.storage.Close()
}

// Degree returns the tree's configured branching factor.
func (t *Tree[T]) Degree() int { return t.degree }

func (t *Tree[T]) rootRef() *NodeRef[T] {
	t.rootMu.RLock()
	defer t.rootMu.RUnlock()
	return t.root
}

func (t *Tree[T]) setRoot(ref *NodeRef[T]) {
	t.rootMu.Lock()
	t.root = ref
	t.rootMu.Unlock()
}

func (t *Tree[T]) loadNode(pos Position) (*Node[T], error) {
	if !t.persistent {
		return nil, errConcurrencyViolation
	}
	r, err := t.storage.ReaderAt(pos.Offset)
	if err != nil {
		return nil, ioErr(err, "bptree: load node at %+v", pos)
	}
	return decodeNode[T](r, t)
}

func medianIndex(degree int) int {
	if degree%2 == 1 {
		return degree / 2
	}
	return (degree - 1) / 2
}

func findChildIndexLocked[T any](node *Node[T], v T, kc codec.KeyCodec[T]) int {
	for i, k := range node.keys {
		if kc.Compare(k.value, v) >= 0 {
			return i
		}
	}
	return -1
}

// Add inserts value into the tree, splitting nodes along the insertion
// path as needed, and flushes the resulting changes.
func (t *Tree[T]) Add(value T) error {
	t.writeMonitor.Lock()
	defer t.writeMonitor.Unlock()
	return t.insertLocked(value)
}

func (t *Tree[T]) insertLocked(v T) error {
	leafRef, path, err := t.descendWithPath(v)
	if err != nil {
		return err
	}

	leafNode, err := leafRef.materialize()
	if err != nil {
		return err
	}

	leafNode.mu.Lock()
	insertPos := 0
	for insertPos < len(leafNode.keys) && t.codec.Compare(leafNode.keys[insertPos].value, v) <= 0 {
		insertPos++
	}
	keys := make([]*Key[T], 0, len(leafNode.keys)+1)
	keys = append(keys, leafNode.keys[:insertPos]...)
	keys = append(keys, &Key[T]{value: v})
	keys = append(keys, leafNode.keys[insertPos:]...)
	leafNode.keys = keys
	reindexKeys(leafNode)
	overflow := len(leafNode.keys) == t.degree
	leafNode.mu.Unlock()

	var newRoot *NodeRef[T]
	if overflow {
		newRoot, err = t.splitAndPromote(leafRef, leafNode, path)
		if err != nil {
			return err
		}
	} else {
		t.saveQueue.enqueue(leafRef)
		for i := len(path) - 1; i >= 0; i-- {
			t.saveQueue.enqueue(path[i])
		}
	}

	if newRoot != nil {
		t.setRoot(newRoot)
	}

	return t.doFlush()
}

// descendWithPath walks from the root to the leaf v would live in,
// returning that leaf's ref and the ancestor refs visited along the way
// (root first).
func (t *Tree[T]) descendWithPath(v T) (*NodeRef[T], []*NodeRef[T], error) {
	ref := t.rootRef()
	var path []*NodeRef[T]
	for {
		node, err := ref.materialize()
		if err != nil {
			return nil, nil, err
		}
		if node.leaf {
			return ref, path, nil
		}

		node.mu.RLock()
		idx := findChildIndexLocked(node, v, t.codec)
		var next *NodeRef[T]
		if idx == -1 {
			next = node.children[len(node.children)-1]
		} else {
			next = node.children[idx]
		}
		node.mu.RUnlock()

		path = append(path, ref)
		ref = next
	}
}

// splitAndPromote splits the full node at oldRef (len(keys) == degree) into
// two siblings around its median key, then inserts that median into the
// parent named by path, recursing up if the parent overflows too. It
// returns a non-nil NodeRef only when the split propagated all the way to
// a brand new root.
func (t *Tree[T]) splitAndPromote(oldRef *NodeRef[T], node *Node[T], path []*NodeRef[T]) (*NodeRef[T], error) {
	medianIdx := medianIndex(t.degree)

	node.mu.RLock()
	medianKey := node.keys[medianIdx]
	leftKeys := cloneKeys(node.keys[:medianIdx])
	rightKeys := cloneKeys(node.keys[medianIdx+1:])
	var leftChildren, rightChildren []*NodeRef[T]
	leaf := node.leaf
	if !leaf {
		leftChildren = cloneChildren(node.children[:medianIdx+1])
		rightChildren = cloneChildren(node.children[medianIdx+1:])
	}
	node.mu.RUnlock()

	var leftNode, rightNode *Node[T]
	if leaf {
		leftNode = newLeafNode(leftKeys)
		rightNode = newLeafNode(rightKeys)
	} else {
		leftNode = newInternalNode(leftKeys, leftChildren)
		rightNode = newInternalNode(rightKeys, rightChildren)
	}

	leftRef := newFreshNodeRef[T](t, leftNode)
	rightRef := newFreshNodeRef[T](t, rightNode)
	t.saveQueue.enqueue(leftRef)
	t.saveQueue.enqueue(rightRef)

	promoted := &Key[T]{value: medianKey.value, deleted: medianKey.deleted}

	if len(path) == 0 {
		newRootNode := newInternalNode([]*Key[T]{promoted}, []*NodeRef[T]{leftRef, rightRef})
		newRootRef := newFreshNodeRef[T](t, newRootNode)
		t.saveQueue.enqueue(newRootRef)
		return newRootRef, nil
	}

	parentRef := path[len(path)-1]
	parentNode, err := parentRef.materialize()
	if err != nil {
		return nil, err
	}

	parentNode.mu.Lock()
	idx := -1
	for i, c := range parentNode.children {
		if c == oldRef {
			idx = i
			break
		}
	}
	if idx == -1 {
		parentNode.mu.Unlock()
		return nil, errConcurrencyViolation
	}

	newKeys := make([]*Key[T], 0, len(parentNode.keys)+1)
	newKeys = append(newKeys, parentNode.keys[:idx]...)
	newKeys = append(newKeys, promoted)
	newKeys = append(newKeys, parentNode.keys[idx:]...)

	newChildren := make([]*NodeRef[T], 0, len(parentNode.children)+1)
	newChildren = append(newChildren, parentNode.children[:idx]...)
	newChildren = append(newChildren, leftRef, rightRef)
	newChildren = append(newChildren, parentNode.children[idx+1:]...)

	parentNode.keys = newKeys
	reindexKeys(parentNode)
	attachChildren(parentNode, newChildren)
	parentOverflow := len(parentNode.keys) == t.degree
	parentNode.mu.Unlock()

	if parentOverflow {
		return t.splitAndPromote(parentRef, parentNode, path[:len(path)-1])
	}

	t.saveQueue.enqueue(parentRef)
	for i := len(path) - 2; i >= 0; i-- {
		t.saveQueue.enqueue(path[i])
	}
	return nil, nil
}

// Find returns the value stored under v and true, or the zero value and
// false if no live (non-deleted) key equals v.
func (t *Tree[T]) Find(v T) (T, bool, error) {
	var zero T
	ref := t.rootRef()
	for {
		node, err := ref.materialize()
		if err != nil {
			return zero, false, err
		}

		node.mu.RLock()
		for _, k := range node.keys {
			if !k.deleted && t.codec.Compare(k.value, v) == 0 {
				val := k.value
				node.mu.RUnlock()
				return val, true, nil
			}
		}
		if node.leaf {
			node.mu.RUnlock()
			return zero, false, nil
		}
		idx := findChildIndexLocked(node, v, t.codec)
		var next *NodeRef[T]
		if idx == -1 {
			next = node.children[len(node.children)-1]
		} else {
			next = node.children[idx]
		}
		node.mu.RUnlock()
		ref = next
	}
}

// Delete marks every live key equal to any of values as deleted, across the
// whole tree, and returns how many keys were marked. It does not rebalance:
// a deleted key's slot and position remain, only find and iterate skip it.
func (t *Tree[T]) Delete(values ...T) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	t.writeMonitor.Lock()
	defer t.writeMonitor.Unlock()

	matches := func(v T) bool {
		for _, target := range values {
			if t.codec.Compare(v, target) == 0 {
				return true
			}
		}
		return false
	}

	count := 0
	queued := make(map[*NodeRef[T]]bool)

	var walk func(ref *NodeRef[T]) (bool, error)
	walk = func(ref *NodeRef[T]) (bool, error) {
		node, err := ref.materialize()
		if err != nil {
			return false, err
		}

		node.mu.Lock()
		ownChanged := false
		for _, k := range node.keys {
			if !k.deleted && matches(k.value) {
				k.deleted = true
				ownChanged = true
				count++
			}
		}
		children := node.children
		leaf := node.leaf
		node.mu.Unlock()

		anyChanged := ownChanged
		if !leaf {
			for _, c := range children {
				childChanged, err := walk(c)
				if err != nil {
					return anyChanged, err
				}
				anyChanged = anyChanged || childChanged
			}
		}

		if anyChanged && !queued[ref] {
			queued[ref] = true
			t.saveQueue.enqueue(ref)
		}
		return anyChanged, nil
	}

	if _, err := walk(t.rootRef()); err != nil {
		return count, err
	}
	if err := t.doFlush(); err != nil {
		return count, err
	}
	return count, nil
}

// Range is declared as part of this tree's external surface but is not
// implemented: it always fails loudly rather than silently returning no
// results.
func (t *Tree[T]) Range(lo, hi T) (*Iterator[T], error) {
	return nil, ErrNotImplemented
}

// Flush writes every node touched since the last flush to storage and
// rewrites the metadata file. Add and Delete already call this
// automatically; it exists as a public operation for a caller that wants
// to force a sync point without performing a write.
func (t *Tree[T]) Flush() error {
	t.writeMonitor.Lock()
	defer t.writeMonitor.Unlock()
	return t.doFlush()
}

func (t *Tree[T]) doFlush() error {
	if !t.persistent {
		t.saveQueue.drain()
		return nil
	}

	for _, ref := range t.saveQueue.drain() {
		node, err := ref.materialize()
		if err != nil {
			return err
		}

		node.mu.RLock()
		data, err := encodeNode(node, t.codec)
		node.mu.RUnlock()
		if err != nil {
			return err
		}

		offset, err := t.storage.Append(data)
		if err != nil {
			return ioErr(err, "bptree: flush node")
		}
		ref.setPosition(Position{FileNumber: 0, Offset: offset})
		if t.cache != nil {
			t.cache.touch(ref)
		}
	}

	rootPos, ok := t.rootRef().Position()
	if !ok {
		return errConcurrencyViolation
	}

	t.metadataMonitor.Lock()
	defer t.metadataMonitor.Unlock()
	if err := writeMetadata(t.metadataPath, metadata{
		StorageDir:  t.storageDir,
		StorageFile: t.storageFile,
		Root:        rootPos,
		Degree:      t.degree,
	}); err != nil {
		return ioErr(err, "bptree: flush metadata")
	}
	return nil
}
