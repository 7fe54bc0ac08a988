package access

import (
	"context"

	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// AllowAll is the development stub Provider: every flag for every user at
// every path. It is a deliberate, explicitly-wired choice in configuration
// ("access.type: allowall"), never a hidden default.
type AllowAll struct{}

// Permissions grants the full flag set unconditionally.
func (AllowAll) Permissions(_ context.Context, _ User, _ vpath.Path) (Flags, error) {
	return Read | Write | Delete | Upload, nil
}
