package browser

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/storage"
	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// createFolder writes the zero-length placeholder object making the folder
// visible and persistent. Creating an already-existing folder succeeds
// silently; overwrite semantics are the backend's.
func (s *Service) createFolder(ctx context.Context, dir vpath.Path) error {
	key := dir.Key(true)

	if err := s.store.Put(ctx, key, bytes.NewReader(nil), 0); err != nil {
		return storagef(err, dir)
	}

	s.logger.Info("created folder", zap.String("path", dir.String()), zap.String("key", key))

	return nil
}

// upload writes the supplied stream at the path's file key. Backends that
// need the content length up front buffer non-seekable streams themselves.
func (s *Service) upload(ctx context.Context, file vpath.Path, body io.Reader, size int64) error {
	key := file.Key(false)

	if err := s.store.Put(ctx, key, body, size); err != nil {
		return storagef(err, file)
	}

	s.logger.Info("uploaded object", zap.String("path", file.String()), zap.Int64("size", size))

	return nil
}

// deleteEntry removes a file or a whole directory subtree.
//
// Files map to a single object delete. Directories enumerate every key
// under the prefix: a non-empty set is batch-deleted, failing on the first
// backend-reported per-key error; an empty set falls back to deleting the
// folder's own placeholder, tolerating its absence (the folder may have
// existed only as an inferred virtual prefix).
func (s *Service) deleteEntry(ctx context.Context, target vpath.Path, isDir bool) error {
	if !isDir {
		if err := s.store.Delete(ctx, target.Key(false)); err != nil {
			return storagef(err, target)
		}

		s.logger.Info("deleted object", zap.String("path", target.String()))

		return nil
	}

	prefix := target.Key(true)

	keys, err := s.keysUnder(ctx, prefix)
	if err != nil {
		return storagef(err, target)
	}

	if len(keys) == 0 {
		// Nothing persisted below the folder; remove the placeholder if
		// one exists. Absence is not an error.
		err := s.store.Delete(ctx, prefix)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return storagef(err, target)
		}

		s.logger.Info("deleted empty folder", zap.String("path", target.String()))

		return nil
	}

	failures, err := s.store.DeleteBatch(ctx, keys)
	if err != nil {
		return storagef(err, target)
	}

	for _, key := range keys {
		if keyErr, failed := failures[key]; failed {
			failedPath, _ := vpath.FromKey(key)

			return storagef(keyErr, target, failedPath)
		}
	}

	s.logger.Info("deleted folder subtree",
		zap.String("path", target.String()),
		zap.Int("objects", len(keys)),
	)

	return nil
}

// move relocates a file or directory subtree from src to dst.
//
// The source kind is resolved first: an explicit directory hint wins, and
// an ambiguous source is classified as a directory when a recursive
// listing under its prefix is non-empty. Directory moves copy every key to
// the destination prefix, preserving relative structure exactly, before
// any deletion happens; a failure mid-copy therefore leaves the source
// intact and the operation can be retried safely.
func (s *Service) move(ctx context.Context, src, dst vpath.Path, dirHint bool) error {
	isDir := dirHint

	var srcKeys []string

	if !isDir {
		keys, err := s.keysUnder(ctx, src.Key(true))
		if err != nil {
			return storagef(err, src)
		}

		if len(keys) > 0 {
			isDir = true
			srcKeys = keys
		}
	}

	s.logger.Debug("resolved move source kind",
		zap.String("source", src.String()),
		zap.String("destination", dst.String()),
		zap.Bool("directory", isDir),
	)

	if !isDir {
		return s.moveFile(ctx, src, dst)
	}

	if srcKeys == nil {
		keys, err := s.keysUnder(ctx, src.Key(true))
		if err != nil {
			return storagef(err, src)
		}

		srcKeys = keys
	}

	return s.moveSubtree(ctx, src, dst, srcKeys)
}

// moveFile copies a single object to the destination key, then deletes the
// source key.
func (s *Service) moveFile(ctx context.Context, src, dst vpath.Path) error {
	srcKey := src.Key(false)
	dstKey := dst.Key(false)

	if err := s.store.Copy(ctx, srcKey, dstKey); err != nil {
		return storagef(err, src, dst)
	}

	if err := s.store.Delete(ctx, srcKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return storagef(err, src)
	}

	s.logger.Info("moved object",
		zap.String("from", src.String()),
		zap.String("to", dst.String()),
	)

	return nil
}

// moveSubtree relocates every key under the source prefix. For each source
// key K the destination key is dstPrefix + K[len(srcPrefix):], so the
// relative structure is preserved exactly. All copies complete before the
// first delete.
func (s *Service) moveSubtree(ctx context.Context, src, dst vpath.Path, srcKeys []string) error {
	srcPrefix := src.Key(true)
	dstPrefix := dst.Key(true)

	if len(srcKeys) == 0 {
		// The folder exists only as a placeholder or virtual prefix.
		// Materialize the destination, then drop the source placeholder.
		if err := s.store.Put(ctx, dstPrefix, bytes.NewReader(nil), 0); err != nil {
			return storagef(err, dst)
		}

		err := s.store.Delete(ctx, srcPrefix)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return storagef(err, src)
		}

		return nil
	}

	for _, key := range srcKeys {
		dstKey := dstPrefix + key[len(srcPrefix):]

		if err := s.store.Copy(ctx, key, dstKey); err != nil {
			srcPath, _ := vpath.FromKey(key)

			return storagef(err, srcPath, dst)
		}
	}

	failures, err := s.store.DeleteBatch(ctx, srcKeys)
	if err != nil {
		return storagef(err, src)
	}

	for _, key := range srcKeys {
		if keyErr, failed := failures[key]; failed && !errors.Is(keyErr, storage.ErrObjectNotFound) {
			failedPath, _ := vpath.FromKey(key)

			return storagef(keyErr, failedPath)
		}
	}

	s.logger.Info("moved folder subtree",
		zap.String("from", src.String()),
		zap.String("to", dst.String()),
		zap.Int("objects", len(srcKeys)),
	)

	return nil
}

// keysUnder enumerates every object key under a prefix, recursively.
func (s *Service) keysUnder(ctx context.Context, prefix string) ([]string, error) {
	listing, err := s.store.List(ctx, prefix, true)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(listing.Objects))
	for _, obj := range listing.Objects {
		keys = append(keys, obj.Key)
	}

	return keys, nil
}
