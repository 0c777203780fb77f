package catalogsearch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/index"
	"github.com/chozen2see/catalogsearch/internal/match"
	"github.com/chozen2see/catalogsearch/internal/resultcache"
	"github.com/chozen2see/catalogsearch/internal/traverse"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stats summarizes one traversal.
type Stats = traverse.Stats

// Searcher runs searches over one catalog. It owns at most one current
// session: starting a search cancels the previous one.
type Searcher struct {
	cat    *catalog.Catalog
	opts   options
	engine *traverse.Engine

	mu      sync.Mutex
	current *Session
	wg      sync.WaitGroup
}

// New creates a Searcher over cat.
func New(cat *catalog.Catalog, optFns ...Option) (*Searcher, error) {
	if cat == nil {
		return nil, ErrNoCatalog
	}

	s := &Searcher{
		cat:  cat,
		opts: applyOptions(optFns),
	}
	s.engine = traverse.New(s.opts.resolver, traverse.Options{
		MaxDepth:       s.opts.maxDepth,
		ExpandGroups:   s.opts.expandGroups,
		MaxConcurrency: s.opts.maxConcurrentResolves,
		Logger:         s.opts.logger.Logger,
		OnLevel:        s.onLevel,
		OnResolve:      s.onResolve,
	})
	return s, nil
}

// Catalog returns the searched catalog.
func (s *Searcher) Catalog() *catalog.Catalog {
	return s.cat
}

// Current returns the most recent session, or nil before the first search.
func (s *Searcher) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Search starts a search and returns its session immediately. The previous
// session, if any, is canceled. A blank query completes at once with no
// results and no message.
//
// ctx bounds the whole search; its cancellation fails the session.
func (s *Searcher) Search(ctx context.Context, query string, mode Mode) *Session {
	sess := newSession(query, mode)

	s.mu.Lock()
	prev := s.current
	s.current = sess
	s.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		s.opts.logger.LogSupersede(ctx, prev, sess)
	}

	if strings.TrimSpace(query) == "" {
		sess.finishEmpty()
		return sess
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, sess)
	}()
	return sess
}

// SearchByDate searches the date field for day, formatted as DateLayout.
func (s *Searcher) SearchByDate(ctx context.Context, day time.Time) *Session {
	return s.Search(ctx, day.Format(DateLayout), ModeDate)
}

// LoadReferences resolves every reference reachable within the depth limit,
// then marks the catalog's references loaded. No node is evaluated, so the
// returned Stats report zero evaluated and matched nodes. Run it before
// building an index so resolved targets are indexed.
func (s *Searcher) LoadReferences(ctx context.Context) (Stats, error) {
	stats, err := s.engine.Traverse(ctx, s.cat, "", match.Default, resultcache.New(),
		traverse.SinkFunc(func(*catalog.Node) {}))
	if err != nil {
		return stats, err
	}
	s.cat.MarkReferencesLoaded()
	s.opts.logger.InfoContext(ctx, "references loaded",
		"passes", stats.Passes,
		"resolved", stats.Resolved,
		"nodes", s.cat.Len(),
		"truncated", stats.Truncated,
	)
	return stats, nil
}

// Wait blocks until every search started so far has finished.
func (s *Searcher) Wait() {
	s.wg.Wait()
}

func (s *Searcher) run(ctx context.Context, sess *Session) {
	ctx, span := s.opts.tracer.Start(ctx, "catalogsearch.Search", trace.WithAttributes(
		attribute.String("search.session", sess.ID()),
		attribute.String("search.mode", sess.Mode().String()),
	))
	defer span.End()

	err := s.execute(ctx, sess)
	elapsed := time.Since(sess.Started())
	results := sess.Len()

	s.opts.metricsCollector.RecordSearch(sess.Mode(), results, elapsed, err)
	s.opts.logger.LogSearch(ctx, sess, results, elapsed, err)
	span.SetAttributes(attribute.Int("search.results", results))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.opts.reporter.Report(ctx, err, SeverityWarning)
	}

	if err == nil && !sess.IsCanceled() {
		s.cat.MarkReferencesLoaded()
	}
	sess.finish(err)
}

func (s *Searcher) execute(ctx context.Context, sess *Session) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrTraversalPanic, p)
		}
	}()

	if s.opts.index != nil {
		hits, err := s.opts.index.Search(ctx, sess.Query())
		if err != nil {
			return fmt.Errorf("index search: %w", err)
		}
		sess.assign(s.resultsOf(hits))
		return nil
	}

	stats, err := s.engine.Traverse(ctx, s.cat,
		strings.ToLower(sess.Query()),
		match.Mode(sess.Mode()),
		resultcache.New(),
		traverse.SinkFunc(func(n *catalog.Node) { sess.add(resultOf(n)) }),
	)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("search.passes", stats.Passes),
		attribute.Int("search.evaluated", stats.Evaluated),
		attribute.Int("search.matched", stats.Matched),
		attribute.Int("search.resolved", stats.Resolved),
		attribute.Bool("search.truncated", stats.Truncated),
	)
	// Every distinct match is emitted exactly once, unless the session was
	// superseded and stopped accepting results.
	if err == nil && !sess.IsCanceled() && stats.Matched != sess.Len() {
		s.opts.logger.WarnContext(ctx, "result count differs from matched nodes",
			"session", sess.ID(),
			"matched", stats.Matched,
			"results", sess.Len(),
		)
	}
	return err
}

// resultsOf maps index hits to results, attaching catalog nodes where the
// catalog holds them.
func (s *Searcher) resultsOf(hits []index.Hit) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		r := Result{ID: h.ID, Name: h.Name}
		if n, ok := s.cat.Lookup(h.ID); ok {
			r.Node = n
			if r.Name == "" {
				r.Name = n.DisplayName()
			}
		}
		if r.Name == "" {
			r.Name = h.ID
		}
		results = append(results, r)
	}
	return results
}

func (s *Searcher) onLevel(ctx context.Context, l traverse.Level) {
	s.opts.metricsCollector.RecordLevel(l.Depth, l.Evaluated, l.Matched, l.Expanding)
	s.opts.logger.LogLevel(ctx, l.Depth, l.Evaluated, l.Matched, l.Expanding)
	trace.SpanFromContext(ctx).AddEvent("traversal.level", trace.WithAttributes(
		attribute.Int("depth", l.Depth),
		attribute.Int("scanned", l.Scanned),
		attribute.Int("evaluated", l.Evaluated),
		attribute.Int("matched", l.Matched),
		attribute.Int("expanding", l.Expanding),
	))
}

func (s *Searcher) onResolve(ctx context.Context, n *catalog.Node, d time.Duration, err error) {
	s.opts.metricsCollector.RecordResolve(n.Kind(), d, err)
	s.opts.logger.LogResolve(ctx, n.ID(), n.Ref(), d, err)
}
