package bptree

import "github.com/cockroachdb/errors"

// Sentinel errors a caller can match with errors.Is. Each is wrapped with
// context at the point of use rather than returned bare.
var (
	// ErrConfiguration marks a problem with the options passed to Open: a
	// degree below 2 or a missing codec.
	ErrConfiguration = errors.New("bptree: configuration error")

	// ErrIO marks a failure talking to the metadata or node storage files.
	// It aborts the operation in progress and is returned to the caller.
	// Changes the operation already made to resident nodes and to the root
	// are not rolled back.
	ErrIO = errors.New("bptree: i/o error")

	// ErrNotImplemented marks surface area the tree deliberately exposes
	// but does not implement, such as range queries. Callers see this
	// returned directly rather than a misleading empty result.
	ErrNotImplemented = errors.New("bptree: not implemented")

	// errConcurrencyViolation marks an internal invariant breach (e.g. a
	// NodeRef with neither a resident node nor a position, or a split node
	// missing from its parent's children). It is never expected to surface
	// to a caller and is not part of the package's public error taxonomy.
	errConcurrencyViolation = errors.New("bptree: concurrency invariant violated")
)

// configErr builds a fresh error chained to ErrConfiguration so callers can
// match it with errors.Is(err, ErrConfiguration).
func configErr(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfiguration)
}

// ioErr wraps cause with context and chains it to ErrIO. A nil cause
// produces a fresh error carrying just the message, rather than
// Wrapf's usual nil-in-nil-out behavior discarding it.
func ioErr(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrIO)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrIO)
}
