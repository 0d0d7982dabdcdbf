package superq

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers, per the error kinds this system
// distinguishes: transient engine busy is retried internally and never
// reaches a caller; everything else below propagates unchanged.
var (
	// ErrNotImplemented marks a contract defined but intentionally absent.
	ErrNotImplemented = errors.New("superq: not implemented")

	// ErrDBExec wraps a rejected statement against the embedded engine,
	// distinct from a transient busy error (which is retried internally
	// and never reaches a caller).
	ErrDBExec = errors.New("superq: db exec failed")

	// ErrMalformedRequest marks a network frame whose grammar is invalid.
	ErrMalformedRequest = errors.New("superq: malformed request")

	// ErrMalformedResponse marks a network frame whose grammar is invalid.
	ErrMalformedResponse = errors.New("superq: malformed response")

	// ErrCollectionEmpty is returned by a non-blocking pop on an empty
	// collection, or a blocking pop whose deadline elapsed.
	ErrCollectionEmpty = errors.New("superq: collection is empty")

	// ErrCollectionFull is returned by a push that would exceed maxlen
	// when the insertion position is not a legal eviction, or whose
	// blocking deadline elapsed.
	ErrCollectionFull = errors.New("superq: collection is full")

	// ErrObjectNotRecognized marks a user object passed to Update or
	// Delete that could not be resolved to an element.
	ErrObjectNotRecognized = errors.New("superq: object not recognized")

	// ErrNotFound marks a missing name lookup in the datastore registry
	// or a collection's keyed index.
	ErrNotFound = errors.New("superq: not found")

	// ErrAlreadyExists marks a duplicate registration (attach of an
	// already-attached collection, or a name collision in the registry).
	ErrAlreadyExists = errors.New("superq: already exists")

	// ErrNotAttached marks an operation (query, datastore mirroring)
	// that requires an attached collection.
	ErrNotAttached = errors.New("superq: not attached")
)

// TypeError reports an unsupported atom type or a scalar/structured
// mismatch.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "superq: type error: " + e.Msg }

// KeyError reports a missing or duplicate key in an element or collection.
type KeyError struct {
	Key any
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("superq: key error: %v", e.Key)
}
