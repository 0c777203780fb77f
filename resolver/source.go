package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/resource"
)

// ErrNotFound is returned by sources when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// Source fetches the document stored under a ref key.
type Source interface {
	Fetch(ctx context.Context, key string) (catalog.Document, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, key string) (catalog.Document, error)

// Fetch calls f(ctx, key).
func (f SourceFunc) Fetch(ctx context.Context, key string) (catalog.Document, error) {
	return f(ctx, key)
}

// Map is a Source over in-memory documents.
type Map map[string]catalog.Document

// Fetch returns m[key].
func (m Map) Fetch(_ context.Context, key string) (catalog.Document, error) {
	d, ok := m[key]
	if !ok {
		return catalog.Document{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return d, nil
}

type limited struct {
	src Source
	rc  *resource.Controller
}

// Limit gates every Fetch of src through rc.
func Limit(src Source, rc *resource.Controller) Source {
	if rc == nil {
		return src
	}
	return &limited{src: src, rc: rc}
}

func (l *limited) Fetch(ctx context.Context, key string) (catalog.Document, error) {
	if err := l.rc.Acquire(ctx); err != nil {
		return catalog.Document{}, err
	}
	defer l.rc.Release()
	return l.src.Fetch(ctx, key)
}
