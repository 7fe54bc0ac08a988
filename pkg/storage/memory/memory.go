// Package memory implements storage.Store with an in-memory map.
//
// The store exists for development and tests: it reproduces the delimiter
// and common-prefix semantics of a real object store so the engines above
// can be exercised without network access. Data is volatile and bounded
// only by available RAM.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bucketfm/bucketfm/pkg/storage"
)

type object struct {
	data         []byte
	lastModified time.Time
}

// Store implements storage.Store backed by a map. All operations are
// protected by a RWMutex; data is copied on read and write so callers never
// share buffers with the store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

// List queries objects under the given prefix, reproducing S3 delimiter
// semantics: non-recursive queries collapse anything below the first "/"
// past the prefix into a common prefix.
func (s *Store) List(ctx context.Context, prefix string, recursive bool) (*storage.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	listing := &storage.Listing{}
	prefixSet := make(map[string]struct{})

	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := key[len(prefix):]
		if rest == "" {
			// The prefix names an object itself (a placeholder queried
			// with its own key). Delimited listings still include it.
			listing.Objects = append(listing.Objects, s.info(key, obj))
			continue
		}

		if recursive {
			listing.Objects = append(listing.Objects, s.info(key, obj))
			continue
		}

		if idx := strings.Index(rest, "/"); idx >= 0 && idx < len(rest)-1 {
			// Deeper than one level: collapse into a common prefix.
			prefixSet[prefix+rest[:idx+1]] = struct{}{}
			continue
		}

		listing.Objects = append(listing.Objects, s.info(key, obj))
	}

	for p := range prefixSet {
		listing.CommonPrefixes = append(listing.CommonPrefixes, p)
	}

	sort.Strings(listing.CommonPrefixes)
	sort.Slice(listing.Objects, func(i, j int) bool {
		return listing.Objects[i].Key < listing.Objects[j].Key
	})

	return listing, nil
}

func (s *Store) info(key string, obj object) storage.ObjectInfo {
	return storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		LastModified: obj.lastModified,
	}
}

// Put writes the full object at key.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read body for %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = object{data: data, lastModified: s.now()}

	return nil
}

// Get opens the object at key. The reader is backed by a copy of the data.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)

	info := s.info(key, obj)

	return io.NopCloser(bytes.NewReader(data)), &info, nil
}

// Head returns object metadata.
func (s *Store) Head(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
	}

	info := s.info(key, obj)

	return &info, nil
}

// Copy duplicates the object at srcKey to dstKey.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.objects[srcKey]
	if !ok {
		return fmt.Errorf("object %s: %w", srcKey, storage.ErrObjectNotFound)
	}

	data := make([]byte, len(src.data))
	copy(data, src.data)

	s.objects[dstKey] = object{data: data, lastModified: s.now()}

	return nil
}

// Delete removes the object at key, reporting ErrObjectNotFound when it
// does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
	}

	delete(s.objects, key)

	return nil
}

// DeleteBatch removes multiple objects. Missing keys are recorded as
// per-key failures; the batch itself always completes.
func (s *Store) DeleteBatch(ctx context.Context, keys []string) (map[string]error, error) {
	failures := make(map[string]error)

	if err := ctx.Err(); err != nil {
		for _, key := range keys {
			failures[key] = err
		}

		return failures, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if _, ok := s.objects[key]; !ok {
			failures[key] = fmt.Errorf("object %s: %w", key, storage.ErrObjectNotFound)
			continue
		}

		delete(s.objects, key)
	}

	return failures, nil
}

// Keys returns every stored key in sorted order. Test helper.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
