// Package resultcache records which nodes a search session has already
// evaluated, and with what outcome.
//
// Node ids are interned to dense ordinals in first-seen order; the matched
// set is a roaring bitmap over those ordinals.
package resultcache

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Cache maps node id to "already evaluated" and its outcome.
// Presence, not value, signals "visited".
//
// A Cache is owned by one session and is not safe for concurrent use.
type Cache struct {
	ordinals map[string]uint32
	ids      []string
	matched  *roaring.Bitmap
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		ordinals: make(map[string]uint32),
		matched:  roaring.New(),
	}
}

// Visited reports whether id has been recorded.
func (c *Cache) Visited(id string) bool {
	_, ok := c.ordinals[id]
	return ok
}

// Lookup returns the recorded outcome for id.
func (c *Cache) Lookup(id string) (matched, ok bool) {
	ord, ok := c.ordinals[id]
	if !ok {
		return false, false
	}
	return c.matched.Contains(ord), true
}

// Record stores the outcome for id. It returns false, leaving the cache
// untouched, if id was already recorded.
func (c *Cache) Record(id string, matched bool) bool {
	if _, ok := c.ordinals[id]; ok {
		return false
	}
	ord := uint32(len(c.ids))
	c.ordinals[id] = ord
	c.ids = append(c.ids, id)
	if matched {
		c.matched.Add(ord)
	}
	return true
}

// Len returns the number of evaluated nodes.
func (c *Cache) Len() int {
	return len(c.ids)
}

// MatchedCount returns the number of nodes recorded as matching.
func (c *Cache) MatchedCount() int {
	return int(c.matched.GetCardinality())
}
