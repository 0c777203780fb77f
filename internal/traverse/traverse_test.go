package traverse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/internal/match"
	"github.com/chozen2see/catalogsearch/internal/resultcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector is a Sink recording emitted ids.
type collector struct {
	mu  sync.Mutex
	ids []string
}

func (c *collector) Emit(n *catalog.Node) {
	c.mu.Lock()
	c.ids = append(c.ids, n.ID())
	c.mu.Unlock()
}

// docResolver resolves references from an in-memory document table.
type docResolver struct {
	cat   *catalog.Catalog
	docs  map[string]catalog.Document
	calls atomic.Int32
}

func (r *docResolver) ResolveReference(_ context.Context, n *catalog.Node) error {
	r.calls.Add(1)
	d, ok := r.docs[n.Ref()]
	if !ok {
		return fmt.Errorf("no document %q", n.Ref())
	}
	target, err := d.Build()
	if err != nil {
		return err
	}
	return r.cat.ResolveReference(n, target)
}

type docLoader struct {
	*docResolver
	loads atomic.Int32
}

func (l *docLoader) LoadMembers(_ context.Context, n *catalog.Node) error {
	l.loads.Add(1)
	d, ok := l.docs[n.Ref()]
	if !ok {
		return fmt.Errorf("no document %q", n.Ref())
	}
	members, err := d.BuildMembers()
	if err != nil {
		return err
	}
	return l.cat.AttachMembers(n, members)
}

func TestTraverse_DefaultMode(t *testing.T) {
	cat := catalog.New(catalog.NewItem("a", "Alpha Storm"), catalog.NewItem("b", "Beta"))
	cache := resultcache.New()
	sink := &collector{}

	stats, err := New(nil, Options{}).Traverse(context.Background(), cat, "storm", match.Default, cache, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sink.ids)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, 2, stats.Evaluated)
	assert.Equal(t, 1, stats.Matched)
	assert.False(t, stats.Truncated)
}

func TestTraverse_EmptyQueryOnlyResolves(t *testing.T) {
	cat := catalog.New(catalog.NewItem("a", "Alpha"), catalog.NewReference("r", "refs/r"))
	res := &docResolver{cat: cat, docs: map[string]catalog.Document{
		"refs/r": {ID: "t", Name: "Target"},
	}}
	cache := resultcache.New()
	sink := &collector{}

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "", match.Default, cache, sink)
	require.NoError(t, err)
	assert.Empty(t, sink.ids)
	assert.Zero(t, stats.Evaluated)
	assert.Zero(t, stats.Matched)
	assert.Zero(t, cache.Len())
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, cat.Unresolved())
}

func TestTraverse_ResolvesReferenceBeforeMatching(t *testing.T) {
	ref := catalog.NewReference("r", "refs/r")
	cat := catalog.New(ref)
	res := &docResolver{cat: cat, docs: map[string]catalog.Document{
		"refs/r": {ID: "t", Info: []catalog.Info{{Content: "2024-05-01"}}},
	}}
	sink := &collector{}
	cache := resultcache.New()

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "2024-05-01", match.Date, cache, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, sink.ids)
	assert.Equal(t, 2, stats.Passes)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, int32(1), res.calls.Load())

	matched, ok := cache.Lookup("r")
	assert.True(t, ok)
	assert.True(t, matched)
}

func TestTraverse_NewChildrenBecomeVisible(t *testing.T) {
	cat := catalog.New(catalog.NewReference("root", "refs/root"), catalog.NewItem("x", "Storm X"))
	res := &docResolver{cat: cat, docs: map[string]catalog.Document{
		"refs/root": {ID: "root", Type: "group", Name: "Root", Members: []catalog.Document{
			{ID: "c1", Name: "Storm child"},
			{ID: "c2", Type: "reference", Ref: "refs/c2"},
		}},
		"refs/c2": {ID: "c2", Name: "Deep storm"},
	}}
	sink := &collector{}

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "c1", "c2"}, sink.ids)
	assert.Equal(t, 3, stats.Passes)
	assert.Equal(t, 4, stats.Evaluated)
}

func TestTraverse_TerminatesOnEndlessReferenceChain(t *testing.T) {
	cat := catalog.New(catalog.NewReference("n0", "0"))
	depth := 0
	res := catalog.ResolverFunc(func(_ context.Context, n *catalog.Node) error {
		depth++
		target := catalog.NewGroup(n.ID(), "storm "+n.ID(), "")
		next := catalog.NewReference(fmt.Sprintf("n%d", depth), fmt.Sprint(depth))
		if _, err := target.SetMembers([]*catalog.Node{next}); err != nil {
			return err
		}
		return cat.ResolveReference(n, target)
	})

	var levels []Level
	stats, err := New(res, Options{OnLevel: func(_ context.Context, l Level) { levels = append(levels, l) }}).
		Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.True(t, stats.Truncated)
	assert.Equal(t, DefaultMaxDepth+1, stats.Passes)
	require.Len(t, levels, DefaultMaxDepth+1)
	assert.Equal(t, DefaultMaxDepth, levels[len(levels)-1].Depth)
}

func TestTraverse_CyclicReferenceIsBounded(t *testing.T) {
	// a's target lists b, b's target lists a: the registry dedups by id, so
	// the cycle ends as soon as both are resolved.
	a := catalog.NewReference("a", "a")
	cat := catalog.New(a)
	res := &docResolver{cat: cat, docs: map[string]catalog.Document{
		"a": {ID: "a", Type: "group", Name: "A", Members: []catalog.Document{{ID: "b", Type: "reference", Ref: "b"}}},
		"b": {ID: "b", Type: "group", Name: "B", Members: []catalog.Document{{ID: "a", Type: "reference", Ref: "a"}}},
	}}

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "zzz", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.False(t, stats.Truncated)
	assert.Equal(t, 2, cat.Len())
}

func TestTraverse_EvaluatesEachNodeOnce(t *testing.T) {
	cat := catalog.New(
		catalog.NewItem("a", "storm a"),
		catalog.NewGroup("g", "storm group", "never-loaded"),
		catalog.NewItem("b", "storm b"),
	)
	cache := resultcache.New()
	sink := &collector{}

	// The unloaded group keeps the walk re-scanning until the depth limit.
	stats, err := New(nil, Options{}).Traverse(context.Background(), cat, "storm", match.Default, cache, sink)
	require.NoError(t, err)
	assert.True(t, stats.Truncated)
	assert.Equal(t, DefaultMaxDepth+1, stats.Passes)
	assert.Equal(t, 3, stats.Evaluated)
	assert.Equal(t, []string{"a", "g", "b"}, sink.ids)
	assert.Equal(t, cache.MatchedCount(), len(sink.ids))
}

func TestTraverse_MaxDepth(t *testing.T) {
	cat := catalog.New(catalog.NewGroup("g", "g", ""))

	stats, err := New(nil, Options{MaxDepth: 2}).Traverse(context.Background(), cat, "g", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Passes)

	stats, err = New(nil, Options{MaxDepth: -1}).Traverse(context.Background(), cat, "g", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Passes)
}

func TestTraverse_ResolveFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	cat := catalog.New(
		catalog.NewItem("a", "storm"),
		catalog.NewReference("bad", "refs/bad"),
	)
	res := catalog.ResolverFunc(func(context.Context, *catalog.Node) error { return boom })
	sink := &collector{}

	_, err := New(res, Options{}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var re *catalog.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "bad", re.NodeID)
	assert.Equal(t, "refs/bad", re.Ref)

	// Matches found before the failure were already emitted.
	assert.Equal(t, []string{"a"}, sink.ids)
}

func TestTraverse_ResolverLeavesReferenceUnresolved(t *testing.T) {
	var calls atomic.Int32
	res := catalog.ResolverFunc(func(context.Context, *catalog.Node) error {
		calls.Add(1)
		return nil
	})
	cat := catalog.New(catalog.NewReference("r", "k").WithName("storm ref"))

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), &collector{})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnresolvedTarget)

	var re *catalog.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "r", re.NodeID)
	assert.Equal(t, "k", re.Ref)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, stats.Passes)
	assert.False(t, stats.Truncated)
}

// emptyLoader reports success without attaching members.
type emptyLoader struct {
	catalog.ResolverFunc
}

func (emptyLoader) LoadMembers(context.Context, *catalog.Node) error { return nil }

func TestTraverse_LoaderLeavesGroupUnloaded(t *testing.T) {
	cat := catalog.New(catalog.NewGroup("g", "Group", "groups/g"))
	loader := emptyLoader{catalog.ResolverFunc(func(context.Context, *catalog.Node) error { return nil })}

	_, err := New(loader, Options{ExpandGroups: true}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), &collector{})
	assert.ErrorIs(t, err, catalog.ErrMembersNotLoaded)

	var re *catalog.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, catalog.KindGroup, re.Kind)
}

func TestTraverse_ResolverPanic(t *testing.T) {
	cat := catalog.New(catalog.NewReference("r", "x"))
	res := catalog.ResolverFunc(func(context.Context, *catalog.Node) error { panic("bad state") })

	_, err := New(res, Options{}).Traverse(context.Background(), cat, "x", match.Default, resultcache.New(), &collector{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad state")
}

func TestTraverse_NoResolver(t *testing.T) {
	cat := catalog.New(catalog.NewReference("r", "x"))

	_, err := New(nil, Options{}).Traverse(context.Background(), cat, "x", match.Default, resultcache.New(), &collector{})
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestTraverse_ResolvesInParallel(t *testing.T) {
	const n = 8
	nodes := make([]*catalog.Node, n)
	for i := range nodes {
		nodes[i] = catalog.NewReference(fmt.Sprintf("r%d", i), "")
	}
	cat := catalog.New(nodes...)

	var inFlight, peak atomic.Int32
	res := catalog.ResolverFunc(func(_ context.Context, node *catalog.Node) error {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return cat.ResolveReference(node, catalog.NewItem(node.ID(), "resolved"))
	})

	stats, err := New(res, Options{}).Traverse(context.Background(), cat, "resolved", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.Equal(t, n, stats.Resolved)
	assert.Greater(t, peak.Load(), int32(1))

	// With a limit of one, resolutions are serialized.
	for i := range nodes {
		nodes[i] = catalog.NewReference(fmt.Sprintf("r%d", i), "")
	}
	cat = catalog.New(nodes...)
	peak.Store(0)
	_, err = New(res, Options{MaxConcurrency: 1}).Traverse(context.Background(), cat, "resolved", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
}

func TestTraverse_GroupExpansion(t *testing.T) {
	newCatalog := func() (*catalog.Catalog, *docLoader) {
		cat := catalog.New(catalog.NewGroup("g", "Group", "groups/g"))
		return cat, &docLoader{docResolver: &docResolver{cat: cat, docs: map[string]catalog.Document{
			"groups/g": {ID: "g", Type: "group", Members: []catalog.Document{{ID: "m", Name: "storm member"}}},
		}}}
	}

	t.Run("Disabled", func(t *testing.T) {
		cat, loader := newCatalog()
		sink := &collector{}
		stats, err := New(loader, Options{}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), sink)
		require.NoError(t, err)
		assert.Empty(t, sink.ids)
		assert.Equal(t, int32(0), loader.loads.Load())
		assert.True(t, stats.Truncated)
	})

	t.Run("Enabled", func(t *testing.T) {
		cat, loader := newCatalog()
		sink := &collector{}
		stats, err := New(loader, Options{ExpandGroups: true}).Traverse(context.Background(), cat, "storm", match.Default, resultcache.New(), sink)
		require.NoError(t, err)
		assert.Equal(t, []string{"m"}, sink.ids)
		assert.Equal(t, int32(1), loader.loads.Load())
		assert.False(t, stats.Truncated)
		assert.Equal(t, 2, stats.Passes)
	})
}

func TestTraverse_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := catalog.New(catalog.NewItem("a", "storm"))
	_, err := New(nil, Options{}).Traverse(ctx, cat, "storm", match.Default, resultcache.New(), &collector{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTraverse_OnResolve(t *testing.T) {
	cat := catalog.New(catalog.NewReference("r", "x"))
	res := catalog.ResolverFunc(func(_ context.Context, n *catalog.Node) error {
		return cat.ResolveReference(n, catalog.NewItem("r", "R"))
	})

	var seen []string
	_, err := New(res, Options{OnResolve: func(_ context.Context, n *catalog.Node, _ time.Duration, err error) {
		assert.NoError(t, err)
		seen = append(seen, n.ID())
	}}).Traverse(context.Background(), cat, "r", match.Default, resultcache.New(), &collector{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, seen)
}
