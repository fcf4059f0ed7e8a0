package bptree

// saveQueue collects the NodeRefs an insert or delete has touched, in the
// order they must be written so that, by the time a parent is flushed, any
// child position it needs to encode has already been assigned. It is owned
// by the single writer: every method here runs while Tree.writeMonitor is
// held, so it carries no lock of its own.
type saveQueue[T any] struct {
	items []*NodeRef[T]
	seen  map[*NodeRef[T]]bool
}

func newSaveQueue[T any]() *saveQueue[T] {
	return &saveQueue[T]{seen: make(map[*NodeRef[T]]bool)}
}

// enqueue appends ref if it is not already queued, so a ref enqueued more
// than once within one write is still written only once.
func (q *saveQueue[T]) enqueue(ref *NodeRef[T]) {
	if ref == nil || q.seen[ref] {
		return
	}
	q.seen[ref] = true
	q.items = append(q.items, ref)
}

// drain returns the queued refs in enqueue order and clears the queue.
func (q *saveQueue[T]) drain() []*NodeRef[T] {
	items := q.items
	q.items = nil
	q.seen = make(map[*NodeRef[T]]bool)
	return items
}
