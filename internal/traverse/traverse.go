// Package traverse implements the bounded-depth, incremental catalog walk.
//
// Every pass re-reads the full node set, evaluates nodes the session has not
// seen yet, then resolves whatever still hides content and starts the next
// pass one level deeper. Re-scanning instead of descending into new children
// keeps the recursion stateless: nodes registered by a resolver are picked up
// by the next pass no matter where they were attached.
package traverse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/internal/match"
	"github.com/chozen2see/catalogsearch/internal/resultcache"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth is the deepest pass that runs. Passes are numbered from 0.
const DefaultMaxDepth = 10

// NodeSource provides the current node set. *catalog.Catalog satisfies it.
type NodeSource interface {
	Nodes() []*catalog.Node
}

// Sink receives matching nodes as soon as they are found.
type Sink interface {
	Emit(n *catalog.Node)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n *catalog.Node)

// Emit calls f(n).
func (f SinkFunc) Emit(n *catalog.Node) { f(n) }

// Level describes one completed evaluation pass.
type Level struct {
	Depth     int
	Scanned   int
	Evaluated int
	Matched   int
	Expanding int
}

// Options configures an Engine.
type Options struct {
	// MaxDepth bounds the recursion. Zero means DefaultMaxDepth; negative
	// values run only the depth-0 pass.
	MaxDepth int

	// ExpandGroups loads unloaded group members through the resolver's
	// catalog.MemberLoader, if it implements one.
	ExpandGroups bool

	// MaxConcurrency bounds parallel resolutions per pass (<= 0: unbounded).
	MaxConcurrency int

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger

	// OnLevel is called after the evaluation phase of every pass.
	OnLevel func(ctx context.Context, l Level)

	// OnResolve is called after every resolution attempt.
	OnResolve func(ctx context.Context, n *catalog.Node, d time.Duration, err error)
}

// Stats summarizes a traversal.
type Stats struct {
	Passes    int
	Evaluated int
	// Matched counts the distinct nodes recorded as matching in the cache.
	Matched   int
	Resolved  int
	Truncated bool
}

// Engine walks a catalog. It holds no per-search state and may be shared.
type Engine struct {
	resolver catalog.Resolver
	loader   catalog.MemberLoader
	opts     Options
}

// New creates an Engine. resolver may be nil for fully-materialized catalogs;
// meeting an unresolved reference then fails the traversal.
func New(resolver catalog.Resolver, opts Options) *Engine {
	switch {
	case opts.MaxDepth == 0:
		opts.MaxDepth = DefaultMaxDepth
	case opts.MaxDepth < 0:
		opts.MaxDepth = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{resolver: resolver, opts: opts}
	if l, ok := resolver.(catalog.MemberLoader); ok {
		e.loader = l
	}
	return e
}

// run is the state of one Traverse call.
type run struct {
	src        NodeSource
	queryLower string
	mode       match.Mode
	cache      *resultcache.Cache
	sink       Sink
	stats      Stats
}

// Traverse walks src from depth 0, recording outcomes in cache and emitting
// matches to sink. queryLower must already be lower-cased. An empty query
// evaluates nothing; the walk then only resolves.
func (e *Engine) Traverse(ctx context.Context, src NodeSource, queryLower string, mode match.Mode, cache *resultcache.Cache, sink Sink) (Stats, error) {
	r := &run{
		src:        src,
		queryLower: queryLower,
		mode:       match.Normalize(mode),
		cache:      cache,
		sink:       sink,
	}
	err := e.traverse(ctx, r, 0)
	r.stats.Matched = cache.MatchedCount()
	return r.stats, err
}

func (e *Engine) traverse(ctx context.Context, r *run, depth int) error {
	if depth > e.opts.MaxDepth {
		r.stats.Truncated = true
		e.opts.Logger.DebugContext(ctx, "depth limit reached", "depth", depth)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.stats.Passes++

	nodes := r.src.Nodes()
	level := Level{Depth: depth, Scanned: len(nodes)}

	r.evaluate(nodes, &level)
	r.stats.Evaluated += level.Evaluated

	expand := e.selectExpansion(nodes)
	level.Expanding = len(expand)
	if e.opts.OnLevel != nil {
		e.opts.OnLevel(ctx, level)
	}
	e.opts.Logger.DebugContext(ctx, "traversal pass",
		"depth", depth,
		"scanned", level.Scanned,
		"evaluated", level.Evaluated,
		"matched", level.Matched,
		"expanding", level.Expanding,
	)

	if len(expand) == 0 {
		return nil
	}

	resolved, err := e.expand(ctx, expand)
	r.stats.Resolved += resolved
	if err != nil {
		return err
	}

	return e.traverse(ctx, r, depth+1)
}

// evaluate matches every resolved node not seen yet and emits the matches.
func (r *run) evaluate(nodes []*catalog.Node, level *Level) {
	if r.queryLower == "" {
		return
	}
	for _, n := range nodes {
		if r.cache.Visited(n.ID()) || !n.IsResolved() {
			continue
		}
		matched := match.Evaluate(n.Effective().Fields(), r.mode, r.queryLower)
		r.cache.Record(n.ID(), matched)
		level.Evaluated++
		if matched {
			level.Matched++
			r.sink.Emit(n)
		}
	}
}

// selectExpansion returns unresolved references and groups whose members are
// not loaded. Groups are selected even when they will not be loaded so the
// walk keeps re-scanning while they exist.
func (e *Engine) selectExpansion(nodes []*catalog.Node) []*catalog.Node {
	var out []*catalog.Node
	for _, n := range nodes {
		if n.NeedsExpansion() {
			out = append(out, n)
		}
	}
	return out
}

// expand resolves every selected node concurrently and waits for all of them.
// The first failure cancels the rest and is returned.
func (e *Engine) expand(ctx context.Context, nodes []*catalog.Node) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	if e.opts.MaxConcurrency > 0 {
		g.SetLimit(e.opts.MaxConcurrency)
	}

	launched := 0
	for _, n := range nodes {
		switch {
		case n.IsReference():
			launched++
			g.Go(func() error { return e.resolve(gctx, n) })
		case n.IsGroup() && e.opts.ExpandGroups && e.loader != nil:
			launched++
			g.Go(func() error { return e.loadMembers(gctx, n) })
		}
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return launched, nil
}

func (e *Engine) resolve(ctx context.Context, n *catalog.Node) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("resolver panic: %v", p)
		}
		if err != nil {
			err = &catalog.ResolveError{NodeID: n.ID(), Ref: n.Ref(), Kind: n.Kind(), Err: err}
		}
		if e.opts.OnResolve != nil {
			e.opts.OnResolve(ctx, n, time.Since(start), err)
		}
	}()

	if e.resolver == nil {
		return ErrNoResolver
	}
	if err := e.resolver.ResolveReference(ctx, n); err != nil {
		return err
	}
	// Left unresolved, the node would be selected again on every pass.
	if !n.IsResolved() {
		return catalog.ErrUnresolvedTarget
	}
	return nil
}

func (e *Engine) loadMembers(ctx context.Context, n *catalog.Node) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("member loader panic: %v", p)
		}
		if err != nil {
			err = &catalog.ResolveError{NodeID: n.ID(), Ref: n.Ref(), Kind: n.Kind(), Err: err}
		}
		if e.opts.OnResolve != nil {
			e.opts.OnResolve(ctx, n, time.Since(start), err)
		}
	}()

	if err := e.loader.LoadMembers(ctx, n); err != nil {
		return err
	}
	if n.NeedsExpansion() {
		return catalog.ErrMembersNotLoaded
	}
	return nil
}
