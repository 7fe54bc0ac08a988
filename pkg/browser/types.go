package browser

import (
	"time"

	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// FileEntry is one row in a directory view.
type FileEntry struct {
	// Name is the entry's leaf name.
	Name string `json:"name"`

	// CanonicalPath locates the entry in the virtual hierarchy.
	// Directory entries carry a trailing slash ("/docs/images/") so that
	// clients can distinguish them without consulting IsDirectory.
	CanonicalPath string `json:"path"`

	// IsDirectory reports whether the entry is a folder (virtual or
	// persisted).
	IsDirectory bool `json:"isDirectory"`

	// Size is the object size in bytes; zero for directories.
	Size int64 `json:"size"`

	// LastModified is the backend-reported modification time when known.
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// Actions understood by the dispatcher. "paste" is accepted as an alias
// for "move".
const (
	ActionRead    = "read"
	ActionDetails = "details"
	ActionCreate  = "create"
	ActionDelete  = "delete"
	ActionRename  = "rename"
	ActionMove    = "move"
	ActionPaste   = "paste"
)

// Request is the single operation envelope accepted by the dispatcher.
// Which fields are required depends on the action; the dispatcher
// validates before touching the permission gate or storage.
type Request struct {
	// Action selects the operation.
	Action string `json:"action"`

	// Path is the directory the operation applies to (or within).
	Path string `json:"path"`

	// TargetPath is the destination directory for move/paste.
	TargetPath string `json:"targetPath,omitempty"`

	// Name is the single item name for rename and details.
	Name string `json:"name,omitempty"`

	// NewName is the folder name for create and the new leaf name for
	// rename.
	NewName string `json:"newName,omitempty"`

	// Names are the item names for batch operations (delete, move,
	// details). A trailing slash marks an item explicitly as a folder.
	Names []string `json:"names,omitempty"`
}

// Response is the result of a dispatched operation. Mutation actions
// always return the refreshed listing of the affected directory so callers
// see current state rather than a stale view.
type Response struct {
	// Path is the canonical directory the entries belong to.
	Path string `json:"path"`

	// Entries is the refreshed single-level listing.
	Entries []FileEntry `json:"entries"`

	// Details carries per-item metadata for the details action.
	Details []FileEntry `json:"details,omitempty"`
}

// entryForDir builds a directory entry for a canonical path.
func entryForDir(p vpath.Path, modified *time.Time) FileEntry {
	canonical := p.String()
	if !p.IsRoot() {
		canonical += "/"
	}

	return FileEntry{
		Name:          p.Base(),
		CanonicalPath: canonical,
		IsDirectory:   true,
		LastModified:  modified,
	}
}

// entryForFile builds a file entry for a canonical path.
func entryForFile(p vpath.Path, size int64, modified *time.Time) FileEntry {
	return FileEntry{
		Name:          p.Base(),
		CanonicalPath: p.String(),
		IsDirectory:   false,
		Size:          size,
		LastModified:  modified,
	}
}
