package index

import (
	"context"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/chozen2see/catalogsearch/catalog"
)

type entry struct {
	hit    Hit
	fields []string
}

// Memory is an in-memory trigram index.
type Memory struct {
	mu      sync.RWMutex
	entries []entry
	byID    map[string]uint32
	grams   map[string]*roaring.Bitmap
}

// Ensure Memory implements Index
var _ Index = (*Memory)(nil)

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]uint32),
		grams: make(map[string]*roaring.Bitmap),
	}
}

// Build indexes every resolved node of cat in registration order.
func Build(cat *catalog.Catalog) *Memory {
	m := NewMemory()
	for _, n := range cat.Nodes() {
		m.AddNode(n)
	}
	return m
}

// AddNode indexes n. Unresolved references are skipped.
func (m *Memory) AddNode(n *catalog.Node) bool {
	if !n.IsResolved() {
		return false
	}
	return m.Add(n.ID(), n.DisplayName(), Fields(n)...)
}

// Add indexes the lower-cased fields under id. An id is indexed once; later
// calls return false.
func (m *Memory) Add(id, name string, fields ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; ok {
		return false
	}

	ord := uint32(len(m.entries))
	m.entries = append(m.entries, entry{hit: Hit{ID: id, Name: name}, fields: fields})
	m.byID[id] = ord

	for _, f := range fields {
		for _, g := range Trigrams(f) {
			bm, ok := m.grams[g]
			if !ok {
				bm = roaring.New()
				m.grams[g] = bm
			}
			bm.Add(ord)
		}
	}
	return true
}

// Search returns entries whose fields contain query, case-insensitively.
func (m *Memory) Search(ctx context.Context, query string) ([]Hit, error) {
	q := strings.ToLower(query)
	if q == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	collect := func(ord uint32) {
		if e := m.entries[ord]; containsAny(e.fields, q) {
			hits = append(hits, e.hit)
		}
	}

	grams := Trigrams(q)
	if len(grams) == 0 {
		for ord := range m.entries {
			collect(uint32(ord))
		}
		return hits, ctx.Err()
	}

	bitmaps := make([]*roaring.Bitmap, 0, len(grams))
	for _, g := range grams {
		bm, ok := m.grams[g]
		if !ok {
			return nil, nil
		}
		bitmaps = append(bitmaps, bm)
	}

	it := roaring.FastAnd(bitmaps...).Iterator()
	for it.HasNext() {
		collect(it.Next())
	}
	return hits, ctx.Err()
}

// Len returns the number of indexed entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
