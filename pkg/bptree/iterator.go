package bptree

// iteratorFrame remembers that the iterator descended into the left child
// of node.keys[keyIndex] and has not yet yielded that key. Frames are kept
// as (NodeRef, keyIndex) rather than raw Node pointers so that a node
// evicted from the cache between steps is transparently reloaded.
type iteratorFrame[T any] struct {
	ref      *NodeRef[T]
	keyIndex int
}

// Iterator walks a tree's keys in ascending order using a bounded ascent
// stack instead of re-descending from the root for every step. The ascent
// stack holds (NodeRef, key index) frames, re-materialized on demand. The
// current position is held across calls as a raw *Key, not as a NodeRef
// and index: its successor link and its owning node's children are read
// from that key directly, and child NodeRefs are materialized on demand.
type Iterator[T any] struct {
	tree    *Tree[T]
	current *Key[T]
	stack   []iteratorFrame[T]
}

// Iterator returns a fresh in-order iterator positioned before the first
// live key.
func (t *Tree[T]) Iterator() (*Iterator[T], error) {
	it := &Iterator[T]{tree: t}
	first, err := it.descendLeftmost(t.rootRef())
	if err != nil {
		return nil, err
	}
	it.current = first
	return it, nil
}

// descendLeftmost follows first-key-left-child links down to a leaf,
// pushing an ascent frame at every interior node it passes through, and
// returns the leaf's first key.
func (it *Iterator[T]) descendLeftmost(ref *NodeRef[T]) (*Key[T], error) {
	for {
		node, err := ref.materialize()
		if err != nil {
			return nil, err
		}

		node.mu.RLock()
		k := node.first
		leaf := node.leaf
		node.mu.RUnlock()

		if k == nil {
			return nil, nil
		}
		if leaf {
			return k, nil
		}

		it.stack = append(it.stack, iteratorFrame[T]{ref: ref, keyIndex: k.idx})
		ref = k.Left()
	}
}

// Next returns the next live key's value in ascending order, or false once
// the tree is exhausted.
func (it *Iterator[T]) Next() (T, bool, error) {
	var zero T
	for {
		if it.current == nil {
			return zero, false, nil
		}
		k := it.current
		if err := it.advance(); err != nil {
			return zero, false, err
		}
		if !k.deleted {
			return k.value, true, nil
		}
	}
}

func (it *Iterator[T]) advance() error {
	cur := it.current

	if cur.Left() != nil {
		next, err := it.descendLeftmost(cur.Right())
		if err != nil {
			return err
		}
		it.current = next
		return nil
	}

	if cur.next != nil {
		it.current = cur.next
		return nil
	}

	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		node, err := top.ref.materialize()
		if err != nil {
			return err
		}
		node.mu.RLock()
		key := node.keys[top.keyIndex]
		// The walk continues into key's right child next, which is the left
		// child of the following key in this node: remember that key too.
		if top.keyIndex+1 < len(node.keys) {
			it.stack = append(it.stack, iteratorFrame[T]{ref: top.ref, keyIndex: top.keyIndex + 1})
		}
		node.mu.RUnlock()

		it.current = key
		return nil
	}

	it.current = nil
	return nil
}
