package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReference is returned when reference-only operations are applied to
	// an item or group.
	ErrNotReference = errors.New("node is not a reference")

	// ErrNotGroup is returned when member operations are applied to a non-group.
	ErrNotGroup = errors.New("node is not a group")

	// ErrUnresolvedTarget is returned when a resolver reports success but the
	// reference still has no target.
	ErrUnresolvedTarget = errors.New("reference resolved without a target")

	// ErrMembersNotLoaded is returned when a member loader reports success but
	// the group's members are still not loaded.
	ErrMembersNotLoaded = errors.New("group loaded without members")

	// ErrNodeNotFound indicates the requested node is not registered.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidDocument is returned for documents that cannot be turned into nodes.
	ErrInvalidDocument = errors.New("invalid catalog document")
)

// ResolveError wraps a failure to resolve a reference or load a group's members.
//
// The original underlying error can be accessed via errors.Unwrap.
type ResolveError struct {
	NodeID string
	Ref    string
	Kind   Kind
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Kind == KindGroup {
		return fmt.Sprintf("load members of %q (ref %q): %v", e.NodeID, e.Ref, e.Err)
	}
	return fmt.Sprintf("resolve reference %q (ref %q): %v", e.NodeID, e.Ref, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
