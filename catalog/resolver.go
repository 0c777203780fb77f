package catalog

import "context"

// Resolver materializes the target of a reference node.
//
// On success the node must be resolved (see Catalog.ResolveReference).
// Resolving an already-resolved node must be a no-op.
type Resolver interface {
	ResolveReference(ctx context.Context, n *Node) error
}

// MemberLoader is optionally implemented by resolvers that can load the
// members of a group node.
type MemberLoader interface {
	LoadMembers(ctx context.Context, n *Node) error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, n *Node) error

// ResolveReference calls f(ctx, n).
func (f ResolverFunc) ResolveReference(ctx context.Context, n *Node) error {
	return f(ctx, n)
}
