package storage

import "errors"

// Standard storage errors shared by every backend implementation. The
// engines above this layer check for these with errors.Is and map them to
// their own outcome taxonomy.
//
// Implementations wrap the sentinels with key context:
//
//	return fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
var (
	// ErrObjectNotFound indicates the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStoreUnavailable indicates the backend is temporarily unreachable.
	// Retrying may succeed; the engines never retry themselves.
	ErrStoreUnavailable = errors.New("storage backend unavailable")
)
