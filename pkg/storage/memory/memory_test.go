package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketfm/bucketfm/pkg/storage"
)

func put(t *testing.T, s *Store, key, content string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), key, strings.NewReader(content), int64(len(content))))
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s := New()
	put(t, s, "docs/a.txt", "hello")

	reader, info, err := s.Get(context.Background(), "docs/a.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)
	assert.False(t, info.LastModified.IsZero())
}

func TestStore_GetMissing(t *testing.T) {
	s := New()

	_, _, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestStore_ListDelimited(t *testing.T) {
	s := New()
	put(t, s, "docs/a.txt", "a")
	put(t, s, "docs/images/", "")
	put(t, s, "docs/images/x.png", "x")
	put(t, s, "docs/images/deep/y.png", "y")
	put(t, s, "other/z.txt", "z")

	listing, err := s.List(context.Background(), "docs/", false)
	require.NoError(t, err)

	var keys []string
	for _, obj := range listing.Objects {
		keys = append(keys, obj.Key)
	}

	assert.Equal(t, []string{"docs/a.txt", "docs/images/"}, keys)
	assert.Equal(t, []string{"docs/images/"}, listing.CommonPrefixes)
}

func TestStore_ListRecursive(t *testing.T) {
	s := New()
	put(t, s, "docs/a.txt", "a")
	put(t, s, "docs/images/x.png", "x")
	put(t, s, "other/z.txt", "z")

	listing, err := s.List(context.Background(), "docs/", true)
	require.NoError(t, err)

	var keys []string
	for _, obj := range listing.Objects {
		keys = append(keys, obj.Key)
	}

	assert.Equal(t, []string{"docs/a.txt", "docs/images/x.png"}, keys)
	assert.Empty(t, listing.CommonPrefixes)
}

func TestStore_Copy(t *testing.T) {
	s := New()
	put(t, s, "a.txt", "payload")

	require.NoError(t, s.Copy(context.Background(), "a.txt", "b/a.txt"))

	reader, _, err := s.Get(context.Background(), "b/a.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	err = s.Copy(context.Background(), "missing", "x")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := New()
	put(t, s, "a.txt", "a")

	require.NoError(t, s.Delete(context.Background(), "a.txt"))
	require.ErrorIs(t, s.Delete(context.Background(), "a.txt"), storage.ErrObjectNotFound)
}

func TestStore_DeleteBatch(t *testing.T) {
	s := New()
	put(t, s, "a.txt", "a")
	put(t, s, "b.txt", "b")

	failures, err := s.DeleteBatch(context.Background(), []string{"a.txt", "b.txt", "missing"})
	require.NoError(t, err)

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["missing"], storage.ErrObjectNotFound)
	assert.Empty(t, s.Keys())
}

func TestStore_ContextCancelled(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, "", false)
	require.ErrorIs(t, err, context.Canceled)

	err = s.Put(ctx, "a", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, context.Canceled)
}
