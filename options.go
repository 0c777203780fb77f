package catalogsearch

import (
	"log/slog"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/index"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type options struct {
	resolver              catalog.Resolver
	index                 index.Index
	maxDepth              int
	expandGroups          bool
	maxConcurrentResolves int
	metricsCollector      MetricsCollector
	logger                *Logger
	reporter              ErrorReporter
	tracer                trace.Tracer
}

// Option configures a Searcher.
type Option func(*options)

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		tracer:           noop.NewTracerProvider().Tracer("catalogsearch"),
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.reporter == nil {
		o.reporter = LogReporter{Logger: o.logger}
	}
	return o
}

// WithResolver configures how unresolved references are materialized.
// If the resolver also implements catalog.MemberLoader it is used to load
// groups when group expansion is enabled.
//
// Without a resolver, reaching an unresolved reference fails the search.
func WithResolver(r catalog.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithIndex installs a prebuilt index as the fast path. When set, every
// search is answered by the index and the catalog is not walked.
func WithIndex(idx index.Index) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithMaxDepth bounds the traversal to depth+1 passes. Zero keeps the
// default of 10; a negative depth runs only the depth-0 pass, so nothing is
// resolved.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithGroupExpansion enables loading the members of unloaded groups during
// the traversal. Off by default.
func WithGroupExpansion(enabled bool) Option {
	return func(o *options) {
		o.expandGroups = enabled
	}
}

// WithMaxConcurrentResolves bounds the number of resolutions a single
// traversal pass runs at once. Zero means unbounded.
func WithMaxConcurrentResolves(n int) Option {
	return func(o *options) {
		o.maxConcurrentResolves = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &catalogsearch.BasicMetricsCollector{}
//	s, _ := catalogsearch.New(cat, catalogsearch.WithMetricsCollector(metrics))
//	// ... search ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Resolves: %d\n", stats.SearchCount, stats.ResolveCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := catalogsearch.NewJSONLogger(slog.LevelInfo)
//	s, _ := catalogsearch.New(cat, catalogsearch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithErrorReporter sets where search failures are reported. The default
// logs them.
func WithErrorReporter(r ErrorReporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithTracer configures OpenTelemetry tracing. Each search runs in one span
// with an event per traversal pass. Pass nil to disable tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer == nil {
			tracer = noop.NewTracerProvider().Tracer("catalogsearch")
		}
		o.tracer = tracer
	}
}
