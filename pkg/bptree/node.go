package bptree

import "sync"

// side identifies which of a key's two child links a node was reached
// through, recorded on the child's parent link purely for bookkeeping and
// diagnostics; nothing in the insert, find, or iterate paths depends on it.
type side int

const (
	sideLeft side = iota
	sideRight
)

// parentLink records the key and side that points down to a node. The root
// is the unique node with a nil parentLink.
type parentLink[T any] struct {
	key  *Key[T]
	side side
}

// Key is one ordered value inside a node, together with the two NodeRefs
// that bound it (absent on leaves) and the successor link the iterator
// walks instead of re-descending from the root.
type Key[T any] struct {
	value T
	owner *Node[T]
	idx   int

	// next links to the following key within the same node, in key order.
	// It is nil for the last key in a node; the iterator's ascent stack
	// takes over from there.
	next *Key[T]

	// deleted marks a tombstone: Delete sets this and nothing else. No
	// rebalancing follows a delete.
	deleted bool
}

// Value returns the key's stored value, independent of its deleted state.
func (k *Key[T]) Value() T { return k.value }

// Deleted reports whether this key has been tombstoned by Delete.
func (k *Key[T]) Deleted() bool { return k.deleted }

// Left returns the child addressing values less than or equal to this key,
// or nil if this key lives in a leaf node.
func (k *Key[T]) Left() *NodeRef[T] {
	if k.owner == nil || k.owner.leaf {
		return nil
	}
	return k.owner.children[k.idx]
}

// Right returns the child addressing values greater than or equal to this
// key, or nil if this key lives in a leaf node.
func (k *Key[T]) Right() *NodeRef[T] {
	if k.owner == nil || k.owner.leaf {
		return nil
	}
	return k.owner.children[k.idx+1]
}

// Next returns the successor key within the same node, or nil if this is
// the node's last key.
func (k *Key[T]) Next() *Key[T] { return k.next }

// Node holds a node's ordered keys and, for interior nodes, the children
// between and around them. Interior nodes with m keys hold exactly m+1
// children; a key's Left()/Right() accessors read directly from this
// shared children slice so that adjacent keys never disagree about the
// subtree between them.
//
// mu guards keys/children/first so that the single writer (serialized by
// Tree.writeMonitor) and unsynchronized readers (Find, Iterator) never
// observe a torn slice header. Per the concurrency model readers never
// acquire the tree's writeMonitor — this lock is the node's own, taken
// only for the instant it takes to read or mutate this node's fields.
type Node[T any] struct {
	mu sync.RWMutex

	leaf     bool
	keys     []*Key[T]
	children []*NodeRef[T] // nil for leaf nodes

	first *Key[T] // keys[0], cached for O(1) access by the iterator's descent

	// parentKeySide is the key and side that points down to this node.
	// Absent (nil) only for the root.
	parentKeySide *parentLink[T]
}

func newLeafNode[T any](keys []*Key[T]) *Node[T] {
	n := &Node[T]{leaf: true, keys: keys}
	reindexKeys(n)
	return n
}

func newInternalNode[T any](keys []*Key[T], children []*NodeRef[T]) *Node[T] {
	n := &Node[T]{leaf: false, keys: keys, children: children}
	reindexKeys(n)
	attachChildren(n, children)
	return n
}

// reindexKeys fixes up owner/idx/next/first after keys has been rebuilt or
// mutated. Callers hold n.mu for writing.
func reindexKeys[T any](n *Node[T]) {
	for i, k := range n.keys {
		k.owner = n
		k.idx = i
		if i+1 < len(n.keys) {
			k.next = n.keys[i+1]
		} else {
			k.next = nil
		}
	}
	if len(n.keys) > 0 {
		n.first = n.keys[0]
	} else {
		n.first = nil
	}
}

// attachChildren installs children on an interior node and stamps each
// child's parentKeySide (on both the NodeRef and, if already materialized,
// its resident Node) so that it points at its new position within n.
// Callers hold n.mu for writing.
func attachChildren[T any](n *Node[T], children []*NodeRef[T]) {
	n.children = children
	for i, c := range children {
		var link *parentLink[T]
		if i < len(n.keys) {
			link = &parentLink[T]{key: n.keys[i], side: sideLeft}
		} else {
			link = &parentLink[T]{key: n.keys[len(n.keys)-1], side: sideRight}
		}
		c.setParentKeySide(link)
		if resident := c.peekResident(); resident != nil {
			resident.parentKeySide = link
		}
	}
}

// cloneKeys returns a shallow copy of a key slice, safe to hand to a new
// node without aliasing the source node's backing array.
func cloneKeys[T any](src []*Key[T]) []*Key[T] {
	out := make([]*Key[T], len(src))
	copy(out, src)
	return out
}

func cloneChildren[T any](src []*NodeRef[T]) []*NodeRef[T] {
	out := make([]*NodeRef[T], len(src))
	copy(out, src)
	return out
}
