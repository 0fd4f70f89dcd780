// Package resolver decides, for a single file, what its tagged or untagged
// name should be. It never renames anything itself: it inspects the
// filesystem and returns an Outcome for the caller to apply.
//
// Both directions are idempotent. Appending to an already tagged name and
// stripping an untagged name are no-ops, and neither direction ever proposes
// a destination that holds different content.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/tagname/pkg/tagname/digest"
)

// Action is the decision taken for a file.
type Action int

const (
	// Rename means the file should move to Outcome.Target.
	Rename Action = iota
	// AlreadyTagged means the name already carries a tag; nothing to append.
	AlreadyTagged
	// Duplicate means the destination already holds identical content.
	Duplicate
	// NotTagged means the name carries no tag; nothing to strip.
	NotTagged
	// VerifyFailed means the tag does not match the file's current digest.
	VerifyFailed
	// Conflict means the untagged name is taken by different content and the
	// policy keeps the file where it is.
	Conflict
)

// String returns the lowercase name of the action.
func (a Action) String() string {
	switch a {
	case Rename:
		return "rename"
	case AlreadyTagged:
		return "already-tagged"
	case Duplicate:
		return "duplicate"
	case NotTagged:
		return "not-tagged"
	case VerifyFailed:
		return "verify-failed"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ConflictPolicy selects what strip does when the untagged name is occupied
// by a file with different content.
type ConflictPolicy string

const (
	// PolicyRefuse reports the conflict and leaves the file tagged.
	PolicyRefuse ConflictPolicy = "refuse"
	// PolicyKeepSuffixed leaves the file tagged without reporting.
	PolicyKeepSuffixed ConflictPolicy = "keep-suffixed"
	// PolicyAddCounter renames to the first free STEM_N.EXT.
	PolicyAddCounter ConflictPolicy = "add-counter"
)

// Policies lists the valid conflict policies.
var Policies = []ConflictPolicy{PolicyRefuse, PolicyKeepSuffixed, PolicyAddCounter}

// ErrInvalidPolicy indicates an unrecognized conflict policy string.
var ErrInvalidPolicy = errors.New("invalid conflict policy")

// ParsePolicy parses a conflict policy name (case-insensitive).
func ParsePolicy(s string) (ConflictPolicy, error) {
	p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Policies {
		if p == valid {
			return p, nil
		}
	}
	return PolicyRefuse, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// Outcome is the result of resolving one file.
type Outcome struct {
	Action Action

	// Source is the path that was resolved.
	Source string

	// Target is the destination for Rename, or the occupied untagged path
	// for Conflict and strip Duplicate.
	Target string

	// Tag is the tag that would be appended or removed.
	Tag string

	// Digest is set whenever the primary digest was available.
	Digest    digest.Sum
	HasDigest bool

	// Countered is true when Target came from the add-counter search.
	Countered bool

	// Policy is the conflict policy in effect for a strip Conflict.
	Policy ConflictPolicy
}
