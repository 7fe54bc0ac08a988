package browser

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// list produces the single-level directory view for a canonical path.
//
// The backend is queried with the path's key as prefix and a "/" delimiter.
// Three entry classes are reconciled into one view:
//
//	(a) common prefixes — virtual folders inferred from key structure,
//	    with no placeholder object of their own
//	(b) zero-byte objects whose key ends in "/" — persisted folder
//	    placeholders
//	(c) ordinary file objects
//
// Entries are deduplicated by canonical path, case-insensitively, with
// directory entries taking precedence over same-named files. The entry
// representing the queried path itself is excluded.
func (s *Service) list(ctx context.Context, dir vpath.Path) ([]FileEntry, error) {
	prefix := dir.Key(true)

	listing, err := s.store.List(ctx, prefix, false)
	if err != nil {
		return nil, storagef(err, dir)
	}

	// Canonical path (lower-cased) -> entry. Directories win collisions.
	merged := make(map[string]FileEntry)

	add := func(entry FileEntry) {
		key := strings.ToLower(strings.TrimSuffix(entry.CanonicalPath, "/"))

		existing, seen := merged[key]
		if seen && (existing.IsDirectory || !entry.IsDirectory) {
			return
		}

		merged[key] = entry
	}

	for _, obj := range listing.Objects {
		p, isDir := vpath.FromKey(obj.Key)
		if p.EqualFold(dir) {
			// Self-exclusion: the queried folder's own placeholder.
			continue
		}

		if isDir {
			modified := obj.LastModified
			add(entryForDir(p, &modified))
			continue
		}

		modified := obj.LastModified
		add(entryForFile(p, obj.Size, &modified))
	}

	// Placeholder objects were merged above; the remaining common prefixes
	// are purely virtual folders.
	for _, cp := range listing.CommonPrefixes {
		p, _ := vpath.FromKey(cp)
		if p.EqualFold(dir) {
			continue
		}

		add(entryForDir(p, nil))
	}

	entries := make([]FileEntry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, entry)
	}

	// Folders first, then case-insensitive name order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDirectory != entries[j].IsDirectory {
			return entries[i].IsDirectory
		}

		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	s.logger.Debug("listed directory",
		zap.String("path", dir.String()),
		zap.Int("entries", len(entries)),
	)

	return entries, nil
}
