// Package access defines the permission model gating every file-manager
// operation.
//
// Effective permissions are a small bit set evaluated fresh for every
// (user, path) pair; nothing is cached across requests. The operation
// specific rules (which flags an operation needs, and on which paths) are
// composed by the dispatcher, not here.
package access

import (
	"context"
	"strings"

	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// Flags is the set of effective permission flags for a (user, path) pair.
type Flags uint8

const (
	// Read allows listing a directory and downloading a file.
	Read Flags = 1 << iota

	// Write allows creating folders and overwriting objects.
	Write

	// Delete allows removing objects.
	Delete

	// Upload allows adding new file content.
	Upload
)

// None is the empty flag set: everything denied.
const None Flags = 0

// Has reports whether every flag in want is present.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Any reports whether at least one flag in want is present.
func (f Flags) Any(want Flags) bool {
	return f&want != 0
}

// String renders the set as "rwdu" with dashes for absent flags.
func (f Flags) String() string {
	var b strings.Builder

	for _, part := range []struct {
		flag Flags
		ch   byte
	}{{Read, 'r'}, {Write, 'w'}, {Delete, 'd'}, {Upload, 'u'}} {
		if f.Has(part.flag) {
			b.WriteByte(part.ch)
		} else {
			b.WriteByte('-')
		}
	}

	return b.String()
}

// User is the authenticated caller context. It is produced by an external
// authentication collaborator and treated as opaque here beyond the fields
// needed for policy evaluation and auditing.
type User struct {
	// ID uniquely identifies the user. Empty for anonymous callers.
	ID string

	// Roles are the role names granted to the user.
	Roles []string

	// Claims carries any additional token claims, unspecified here.
	Claims map[string]any
}

// HasRole reports whether the user carries the named role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// Provider evaluates effective permissions for a user at a path.
//
// Implementations must not cache results across requests; the dispatcher
// queries a fresh evaluation before every operation. An error return is an
// infrastructure fault and is treated as a denial by callers (fail closed),
// never as an authorization verdict.
type Provider interface {
	Permissions(ctx context.Context, user User, path vpath.Path) (Flags, error)
}
