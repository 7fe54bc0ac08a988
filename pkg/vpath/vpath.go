// Package vpath implements the virtual path model used by the file manager.
//
// A Path is the single canonical string form for a location in the virtual
// hierarchy. Object storage backends address content with flat keys; this
// package owns the bidirectional mapping between the two representations:
//
//	Path "/docs/report.pdf"  <->  key "docs/report.pdf"   (file object)
//	Path "/docs"             <->  key "docs/"             (folder placeholder)
//
// Canonical Form:
//   - Always begins with "/"
//   - No empty segments (no "//")
//   - No trailing "/" except for the root path "/"
//
// Canonicalize is the only producer of Path values from raw caller input and
// is idempotent: canonicalizing an already-canonical path is a no-op.
package vpath

import (
	"fmt"
	"net/url"
	"strings"
)

// Path is a canonical absolute path in the virtual hierarchy.
//
// The zero value is not valid; obtain a Path via Canonicalize, FromKey, or
// the navigation helpers (Parent, Join).
type Path string

// Root is the canonical root of the hierarchy.
const Root Path = "/"

// ErrEmptyPath is returned by Canonicalize when no path was supplied.
// Every non-empty input normalizes successfully.
var ErrEmptyPath = fmt.Errorf("path must not be empty")

// Canonicalize normalizes an arbitrary caller-supplied path string into its
// canonical form.
//
// Normalization steps, in order:
//  1. Decode percent/plus escape sequences ("%20", "+") to a fixed point
//  2. Normalize backslashes to forward slashes
//  3. Collapse repeated slashes
//  4. Ensure a leading slash
//  5. Strip the trailing slash unless the whole path is the root
//  6. If the final two segments are identical (case-insensitive), drop the
//     duplicate. This guards against a known client defect that occasionally
//     re-sends the last folder segment twice; no other heuristic
//     deduplication is applied.
//
// Only an empty input fails; every other string normalizes successfully.
func Canonicalize(raw string) (Path, error) {
	if raw == "" {
		return "", ErrEmptyPath
	}

	// Escape decoding is best-effort: a path with a stray "%" is passed
	// through untouched rather than rejected. Decoding runs to a fixed
	// point so that doubly-encoded input and output containing decodable
	// sequences both settle on one stable form.
	for {
		decoded, err := url.QueryUnescape(raw)
		if err != nil || decoded == raw {
			break
		}

		raw = decoded
	}

	raw = strings.ReplaceAll(raw, "\\", "/")

	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(raw, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	// Duplicate trailing segment correction. Applied to a fixed point so
	// that canonicalization stays idempotent.
	for n := len(segments); n >= 2 && strings.EqualFold(segments[n-1], segments[n-2]); n = len(segments) {
		segments = segments[:n-1]
	}

	if len(segments) == 0 {
		return Root, nil
	}

	return Path("/" + strings.Join(segments, "/")), nil
}

// IsRoot reports whether the path is the hierarchy root.
func (p Path) IsRoot() bool {
	return p == Root
}

// String returns the canonical string form.
func (p Path) String() string {
	return string(p)
}

// Key maps the path to its flat storage key.
//
// The leading slash is stripped; a trailing slash is appended iff the path
// denotes a directory and is not the root. The root maps to the empty key,
// which backends interpret as "the whole store".
func (p Path) Key(isDir bool) string {
	if p.IsRoot() {
		return ""
	}

	key := strings.TrimPrefix(string(p), "/")
	if isDir {
		key += "/"
	}

	return key
}

// FromKey maps a flat storage key back to its canonical path.
//
// A key ending in "/" denotes a folder; the returned boolean reports that.
// The empty key maps to the root.
func FromKey(key string) (Path, bool) {
	if key == "" {
		return Root, true
	}

	isDir := strings.HasSuffix(key, "/")
	trimmed := strings.TrimSuffix(key, "/")

	return Path("/" + trimmed), isDir
}

// Parent returns the canonical path of the nearest ancestor.
// The root is its own parent.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return Root
	}

	idx := strings.LastIndex(string(p), "/")
	if idx <= 0 {
		return Root
	}

	return p[:idx]
}

// Base returns the final segment of the path, or "/" for the root.
func (p Path) Base() string {
	if p.IsRoot() {
		return "/"
	}

	idx := strings.LastIndex(string(p), "/")

	return string(p[idx+1:])
}

// Join appends a single child segment.
//
// Unlike Canonicalize, Join performs no duplicate-segment correction: a
// folder legitimately named like its parent must remain addressable once
// the hierarchy exists.
func (p Path) Join(name string) Path {
	name = strings.Trim(name, "/")
	if name == "" {
		return p
	}

	if p.IsRoot() {
		return Path("/" + name)
	}

	return Path(string(p) + "/" + name)
}

// EqualFold reports whether two paths are equal under case-insensitive
// comparison. Listing deduplication treats paths differing only in case as
// the same entry.
func (p Path) EqualFold(other Path) bool {
	return strings.EqualFold(string(p), string(other))
}
