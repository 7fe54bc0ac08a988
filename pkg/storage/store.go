// Package storage defines the flat object-store contract consumed by the
// file-manager engines.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	// Key is the flat storage key, relative to the store root. A key ending
	// in "/" denotes a zero-byte folder placeholder.
	Key string

	// Size is the object size in bytes.
	Size int64

	// LastModified is the backend-reported modification time.
	LastModified time.Time
}

// IsPlaceholder reports whether the object is a folder placeholder.
func (o ObjectInfo) IsPlaceholder() bool {
	return len(o.Key) > 0 && o.Key[len(o.Key)-1] == '/'
}

// Listing is the result of a prefix query.
type Listing struct {
	// Objects are the objects directly matching the query.
	Objects []ObjectInfo

	// CommonPrefixes are the single-level sub-prefixes reported by the
	// backend for a delimited (non-recursive) query. Each ends in "/".
	// Empty for recursive queries.
	CommonPrefixes []string
}

// Store is the capability interface every storage backend implements.
//
// All keys are flat strings with no leading "/". The hierarchy projected on
// top of them is entirely the caller's concern; a Store sees only prefixes.
//
// Implementations must be safe for concurrent use and must honor context
// cancellation on every call. Consistency between concurrent writers to the
// same key is the backend's responsibility, not the caller's.
//
// Not-found conditions are reported with ErrObjectNotFound (possibly
// wrapped); callers detect them with errors.Is.
type Store interface {
	// List queries objects under the given key prefix.
	//
	// When recursive is false the query is delimited by "/": only objects
	// directly under the prefix are returned, with deeper levels collapsed
	// into Listing.CommonPrefixes. When recursive is true every key under
	// the prefix is returned and CommonPrefixes is empty.
	List(ctx context.Context, prefix string, recursive bool) (*Listing, error)

	// Put writes the full object at key, overwriting any existing object.
	// size is the content length in bytes; backends that require an exact
	// length up front may buffer body if it is not seekable.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// Get opens the object at key for reading. The caller must close the
	// returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// Head returns object metadata without reading the content.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Copy duplicates the object at srcKey to dstKey within the store.
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Delete removes the object at key. Backends that can detect a missing
	// key report ErrObjectNotFound; backends that cannot distinguish (S3
	// deletes are idempotent) return nil. Callers that tolerate absence
	// must accept both.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes multiple objects. The returned map contains one
	// entry per key that failed; an empty map means every key was removed.
	// The second return value reports catastrophic failures (the whole
	// batch call failing), not per-key ones.
	DeleteBatch(ctx context.Context, keys []string) (map[string]error, error)
}
