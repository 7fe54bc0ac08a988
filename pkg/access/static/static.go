// Package static implements a configuration-driven access.Provider.
//
// Policy is a flat rule list loaded at process start. Each rule grants a
// flag set to a role (or to everyone) under a path prefix; the most
// specific (longest) matching prefix wins, and paths matched by no rule are
// denied entirely.
package static

import (
	"context"
	"fmt"
	"strings"

	"github.com/bucketfm/bucketfm/pkg/access"
	"github.com/bucketfm/bucketfm/pkg/vpath"
)

// Rule grants permissions under a path prefix.
type Rule struct {
	// PathPrefix is the canonical path prefix the rule covers, e.g. "/" or
	// "/public". Must begin with "/".
	PathPrefix string

	// Role restricts the rule to users carrying the role. Empty matches
	// every user, including anonymous ones.
	Role string

	// Grant is the flag set awarded by the rule.
	Grant access.Flags
}

// Provider evaluates permissions against a static rule list.
type Provider struct {
	rules []Rule
}

// New validates the rule list and builds a Provider.
func New(rules []Rule) (*Provider, error) {
	for i, rule := range rules {
		if !strings.HasPrefix(rule.PathPrefix, "/") {
			return nil, fmt.Errorf("rule %d: path prefix %q must begin with /", i, rule.PathPrefix)
		}
	}

	return &Provider{rules: rules}, nil
}

// Permissions returns the grant of the longest-prefix rule matching the
// user and path. Rules whose role the user lacks are skipped. With no
// matching rule the result is access.None.
func (p *Provider) Permissions(ctx context.Context, user access.User, path vpath.Path) (access.Flags, error) {
	if err := ctx.Err(); err != nil {
		return access.None, err
	}

	var (
		best    = -1
		granted = access.None
	)

	for _, rule := range p.rules {
		if rule.Role != "" && !user.HasRole(rule.Role) {
			continue
		}

		if !matchesPrefix(path, rule.PathPrefix) {
			continue
		}

		if len(rule.PathPrefix) > best {
			best = len(rule.PathPrefix)
			granted = rule.Grant
		} else if len(rule.PathPrefix) == best {
			// Equally specific rules combine.
			granted |= rule.Grant
		}
	}

	return granted, nil
}

// matchesPrefix reports whether path falls under the rule prefix on segment
// boundaries: "/pub" covers "/pub" and "/pub/x" but never "/public".
func matchesPrefix(path vpath.Path, prefix string) bool {
	if prefix == "/" {
		return true
	}

	s := path.String()
	if !strings.HasPrefix(s, prefix) {
		return false
	}

	return len(s) == len(prefix) || s[len(prefix)] == '/'
}

// ParseFlags converts a permission spec like "read,write,upload" into a
// flag set. Used by the configuration factory.
func ParseFlags(spec string) (access.Flags, error) {
	flags := access.None

	for _, part := range strings.Split(spec, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "read":
			flags |= access.Read
		case "write":
			flags |= access.Write
		case "delete":
			flags |= access.Delete
		case "upload":
			flags |= access.Upload
		case "":
		default:
			return access.None, fmt.Errorf("unknown permission %q", part)
		}
	}

	return flags, nil
}
