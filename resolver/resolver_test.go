package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chozen2see/catalogsearch/blobstore"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/chozen2see/catalogsearch/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_ResolveReference(t *testing.T) {
	ref := catalog.NewReference("r", "refs/r")
	cat := catalog.New(ref)
	r := New(cat, Map{
		"refs/r": {ID: "t", Type: "group", Name: "Festival", Members: []catalog.Document{
			{ID: "m1", Name: "Opening"},
			{ID: "m2", Type: "reference", Ref: "refs/m2"},
		}},
	})

	require.NoError(t, r.ResolveReference(context.Background(), ref))
	assert.True(t, ref.IsResolved())
	assert.Equal(t, "Festival", ref.DisplayName())

	_, ok := cat.Lookup("m1")
	assert.True(t, ok)
	m2, ok := cat.Lookup("m2")
	require.True(t, ok)
	assert.False(t, m2.IsResolved())

	// Resolving again is a no-op.
	require.NoError(t, r.ResolveReference(context.Background(), ref))
	assert.Equal(t, 3, cat.Len())
}

func TestResolver_Errors(t *testing.T) {
	cat := catalog.New()
	r := New(cat, Map{"bad": {Type: "item"}})

	err := r.ResolveReference(context.Background(), catalog.NewItem("i", "item"))
	assert.ErrorIs(t, err, catalog.ErrNotReference)

	err = r.ResolveReference(context.Background(), catalog.NewReference("r", ""))
	assert.ErrorIs(t, err, ErrMissingRef)

	err = r.ResolveReference(context.Background(), catalog.NewReference("r", "missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	err = r.ResolveReference(context.Background(), catalog.NewReference("r", "bad"))
	assert.ErrorIs(t, err, catalog.ErrInvalidDocument)

	err = r.LoadMembers(context.Background(), catalog.NewItem("i", "item"))
	assert.ErrorIs(t, err, catalog.ErrNotGroup)
}

func TestResolver_LoadMembers(t *testing.T) {
	g := catalog.NewGroup("g", "Group", "groups/g")
	cat := catalog.New(g)
	r := New(cat, Map{
		"groups/g": {ID: "g", Type: "group", Members: []catalog.Document{{ID: "a"}, {ID: "b"}}},
	})

	require.NoError(t, r.LoadMembers(context.Background(), g))
	assert.True(t, g.MembersLoaded())
	assert.Len(t, g.Members(), 2)
	assert.Equal(t, 3, cat.Len())

	require.NoError(t, r.LoadMembers(context.Background(), g))
	assert.Equal(t, 3, cat.Len())
}

func TestBlob_Fetch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	for _, name := range []string{"refs/plain.json", "refs/small.zst", "refs/fast.lz4"} {
		data, err := catalog.EncodeDocument(codec.Default, "docs/"+name, catalog.Document{ID: name, Name: "doc"})
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, "docs/"+name, data))
	}

	src := NewBlob(store, WithPrefix("docs"))
	for _, name := range []string{"refs/plain.json", "refs/small.zst", "refs/fast.lz4"} {
		t.Run(name, func(t *testing.T) {
			d, err := src.Fetch(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, name, d.ID)
		})
	}

	_, err := src.Fetch(ctx, "refs/plain.json")
	require.NoError(t, err)
	hits, misses := src.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(3), misses)

	_, err = src.Fetch(ctx, "refs/none.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlob_Preload(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "catalog.json", make([]byte, 64)))
	require.NoError(t, store.Put(ctx, "docs/refs/a.json", []byte(`{"id":"a"}`)))
	require.NoError(t, store.Put(ctx, "docs/refs/b.json", []byte(`{"id":"b"}`)))
	require.NoError(t, store.Put(ctx, "docs/refs/big.json", make([]byte, 40)))
	require.NoError(t, store.Put(ctx, "docsx/c.json", []byte(`{"id":"c"}`)))

	src := NewBlob(store, WithPrefix("docs"), WithCacheBytes(32))
	n, err := src.Preload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, key := range []string{"refs/a.json", "refs/b.json"} {
		_, err := src.Fetch(ctx, key)
		require.NoError(t, err)
	}
	hits, misses := src.CacheStats()
	assert.Equal(t, int64(2), hits)
	assert.Zero(t, misses)
}

func TestBlob_CorruptDocumentNotCached(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad.json", []byte("{not json")))

	src := NewBlob(store)
	_, err := src.Fetch(ctx, "bad.json")
	require.Error(t, err)

	require.NoError(t, store.Put(ctx, "bad.json", []byte(`{"id":"fixed"}`)))
	d, err := src.Fetch(ctx, "bad.json")
	require.NoError(t, err)
	assert.Equal(t, "fixed", d.ID)
}

func TestLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := SourceFunc(func(context.Context, string) (catalog.Document, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return catalog.Document{ID: "x"}, nil
	})

	rc := resource.NewController(resource.Config{MaxConcurrent: 2})
	src := Limit(slow, rc)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := src.Fetch(context.Background(), "k")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int64(10), rc.Admitted())
	assert.Equal(t, int64(0), rc.InFlight())
}

func TestLimit_Canceled(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxConcurrent: 1})
	require.NoError(t, rc.Acquire(context.Background()))

	called := false
	src := Limit(SourceFunc(func(context.Context, string) (catalog.Document, error) {
		called = true
		return catalog.Document{}, nil
	}), rc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx, "k")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}
