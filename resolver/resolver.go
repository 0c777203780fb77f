package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chozen2see/catalogsearch/catalog"
)

// ErrMissingRef is returned for nodes that carry no ref key.
var ErrMissingRef = errors.New("node has no ref key")

// Resolver implements catalog.Resolver and catalog.MemberLoader by fetching
// documents from a Source and registering them in a catalog.
type Resolver struct {
	cat    *catalog.Catalog
	src    Source
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver registering fetched nodes in cat.
func New(cat *catalog.Catalog, src Source, opts ...Option) *Resolver {
	r := &Resolver{
		cat:    cat,
		src:    src,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveReference fetches the target named by n's ref key.
func (r *Resolver) ResolveReference(ctx context.Context, n *catalog.Node) error {
	if !n.IsReference() {
		return fmt.Errorf("%w: %s", catalog.ErrNotReference, n.ID())
	}
	if n.IsResolved() {
		return nil
	}

	d, err := r.fetch(ctx, n)
	if err != nil {
		return err
	}
	target, err := d.Build()
	if err != nil {
		return fmt.Errorf("build target of %q: %w", n.ID(), err)
	}
	if err := r.cat.ResolveReference(n, target); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "reference resolved",
		"node", n.ID(),
		"ref", n.Ref(),
		"members", len(target.Members()),
	)
	return nil
}

// LoadMembers fetches the group document named by n's ref key and attaches
// its members.
func (r *Resolver) LoadMembers(ctx context.Context, n *catalog.Node) error {
	if !n.IsGroup() {
		return fmt.Errorf("%w: %s", catalog.ErrNotGroup, n.ID())
	}
	if n.MembersLoaded() {
		return nil
	}

	d, err := r.fetch(ctx, n)
	if err != nil {
		return err
	}
	members, err := d.BuildMembers()
	if err != nil {
		return fmt.Errorf("build members of %q: %w", n.ID(), err)
	}
	if err := r.cat.AttachMembers(n, members); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "group loaded", "node", n.ID(), "ref", n.Ref(), "members", len(members))
	return nil
}

func (r *Resolver) fetch(ctx context.Context, n *catalog.Node) (catalog.Document, error) {
	if n.Ref() == "" {
		return catalog.Document{}, fmt.Errorf("%w: %s", ErrMissingRef, n.ID())
	}
	return r.src.Fetch(ctx, n.Ref())
}
