package catalogsearch

import (
	"errors"
	"fmt"

	"github.com/chozen2see/catalogsearch/catalog"
)

var (
	// ErrNoCatalog is returned by New when no catalog is given.
	ErrNoCatalog = errors.New("catalog is required")

	// ErrEmptyQuery is returned by callers that require a non-blank query.
	// Search itself treats a blank query as an empty, completed search.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidMode is returned by ParseMode for unknown mode names.
	ErrInvalidMode = errors.New("invalid search mode")

	// ErrTraversalPanic wraps a panic recovered from a search goroutine.
	ErrTraversalPanic = errors.New("search panicked")
)

// ResolveError reports a failed reference resolution.
// It aborts the search that hit it.
type ResolveError = catalog.ResolveError

// ConfigError indicates an invalid configuration value.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Field string
	Value any
	cause error
}

func (e *ConfigError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid config %s=%v: %v", e.Field, e.Value, e.cause)
	}
	return fmt.Sprintf("invalid config %s=%v", e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error { return e.cause }
