package browser

import (
	"fmt"
	"strings"

	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// The outcome taxonomy for file-manager operations. Every failure a caller
// can observe is one of these three kinds; anything else escaping the
// dispatcher is a bug. Local concerns (canonicalization edge cases, the
// duplicate-segment correction) are resolved silently and never surface.

// ValidationError reports a malformed or incomplete request, e.g. an
// unknown action or a delete with no item names. Mapped to a bad-request
// response. Raised before any permission or storage call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// validationf builds a ValidationError with a formatted reason.
func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationDenied reports a permission gate rejection. Mapped to a
// forbidden response. Authorization is strictly a precondition: when this
// is returned, no storage call was issued for the denied item.
type AuthorizationDenied struct {
	// Path is the canonical path the check applied to.
	Path vpath.Path

	// Requirement names the unmet flag requirement, e.g. "delete".
	Requirement string
}

func (e *AuthorizationDenied) Error() string {
	return fmt.Sprintf("access denied: %s required on %s", e.Requirement, e.Path)
}

// StorageFailure wraps a backend I/O error with the attempted path(s).
// Mapped to an internal-error response; the wrapped cause is for operator
// logs and never leaks backend details to the caller.
type StorageFailure struct {
	Paths []vpath.Path
	Err   error
}

func (e *StorageFailure) Error() string {
	paths := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		paths[i] = p.String()
	}

	return fmt.Sprintf("storage operation failed for %s: %v", strings.Join(paths, ", "), e.Err)
}

func (e *StorageFailure) Unwrap() error {
	return e.Err
}

// storagef wraps a backend error for the given paths.
func storagef(err error, paths ...vpath.Path) *StorageFailure {
	return &StorageFailure{Paths: paths, Err: err}
}
