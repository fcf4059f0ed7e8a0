package bptree

import "sync"

// NodeRef is the lazy-load indirection every child pointer and the tree's
// root go through. A NodeRef either already has a resident Node in memory,
// or knows the Position it can be read back from, or both. Materializing a
// persistent-mode NodeRef is idempotent and safe to call from any number of
// concurrent readers at once: the first caller loads it, everyone else
// observes the same resident Node.
type NodeRef[T any] struct {
	mu sync.Mutex

	tree *Tree[T]

	position    Position
	hasPosition bool

	resident *Node[T]

	// parentKeySide mirrors the field of the same name on Node, carried
	// here so it survives eviction and reattaches itself the next time
	// this ref is materialized.
	parentKeySide *parentLink[T]
}

// newFreshNodeRef wraps a node that was just built in memory (by a split or
// by tree construction) and has not been written to storage yet.
func newFreshNodeRef[T any](tree *Tree[T], node *Node[T]) *NodeRef[T] {
	return &NodeRef[T]{tree: tree, position: NoPosition, resident: node}
}

// newPersistentNodeRef wraps a child reference decoded from an on-disk
// parent record: it has a position but is not materialized until read.
func newPersistentNodeRef[T any](tree *Tree[T], pos Position) *NodeRef[T] {
	return &NodeRef[T]{tree: tree, position: pos, hasPosition: true}
}

// peekResident returns the currently resident Node without triggering a
// load, or nil if none is resident right now.
func (r *NodeRef[T]) peekResident() *Node[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resident
}

// materialize returns this ref's Node, loading it from storage if
// necessary.
func (r *NodeRef[T]) materialize() (*Node[T], error) {
	r.mu.Lock()
	if r.resident != nil {
		n := r.resident
		r.mu.Unlock()
		r.touchCache()
		return n, nil
	}
	if !r.hasPosition {
		r.mu.Unlock()
		return nil, errConcurrencyViolation
	}
	pos := r.position
	r.mu.Unlock()

	node, err := r.tree.loadNode(pos)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.resident == nil {
		node.parentKeySide = r.parentKeySide
		r.resident = node
	}
	n := r.resident
	r.mu.Unlock()

	r.touchCache()
	return n, nil
}

func (r *NodeRef[T]) touchCache() {
	if r.tree != nil && r.tree.cache != nil {
		r.tree.cache.touch(r)
	}
}

// evict drops the resident Node, if any. It is a no-op for a node that has
// never been flushed: that resident copy is the only copy, and dropping it
// would lose data.
func (r *NodeRef[T]) evict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasPosition {
		r.resident = nil
	}
}

// setPosition records the position a flush just assigned this ref.
func (r *NodeRef[T]) setPosition(pos Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = pos
	r.hasPosition = true
}

// Position reports this ref's on-disk position, if it has been flushed.
func (r *NodeRef[T]) Position() (Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position, r.hasPosition
}

func (r *NodeRef[T]) setParentKeySide(link *parentLink[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parentKeySide = link
}
