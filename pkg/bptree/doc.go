// Package bptree is an ordered, disk-persistent B-tree index over a
// generic, totally-ordered key type T.
//
// A Tree is built with Open, given a codec.KeyCodec[T] and, optionally, a
// metadata path that makes it persistent. Add and Delete are serialized
// against each other by a single writer lock; Find and Iterator never
// acquire it, reading whatever state is currently resident instead.
//
// Node storage is append-only: updating a node writes a new copy at a new
// byte position rather than overwriting the old one. In memory, however,
// an insert changes resident nodes in place and a flush moves each touched
// NodeRef to its new position, so a reader walking the tree during a
// concurrent insert is not given an older snapshot: it can see some of that
// insert's changes and not others.
package bptree
