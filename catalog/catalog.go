package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Catalog is the registry of every materialized node, in registration order.
// It is safe for concurrent use; resolvers register nodes while searches read.
type Catalog struct {
	mu    sync.RWMutex
	nodes []*Node
	byID  map[string]*Node

	referencesLoaded atomic.Bool
}

// New creates a catalog and registers the given top-level nodes.
func New(nodes ...*Node) *Catalog {
	c := &Catalog{byID: make(map[string]*Node, len(nodes))}
	for _, n := range nodes {
		c.Add(n)
	}
	return c
}

// Add registers n and, recursively, any members it already has. If a node
// with the same id is registered, the existing node is kept and returned with
// added=false.
func (c *Catalog) Add(n *Node) (registered *Node, added bool) {
	c.mu.Lock()
	registered, added = c.addLocked(n)
	c.mu.Unlock()
	return registered, added
}

func (c *Catalog) addLocked(n *Node) (*Node, bool) {
	if existing, ok := c.byID[n.id]; ok {
		return existing, false
	}
	c.byID[n.id] = n
	c.nodes = append(c.nodes, n)
	for _, m := range n.Members() {
		c.addLocked(m)
	}
	return n, true
}

// AddDocument builds d and registers the resulting node tree.
func (c *Catalog) AddDocument(d Document) (*Node, error) {
	n, err := d.Build()
	if err != nil {
		return nil, err
	}
	registered, _ := c.Add(n)
	return registered, nil
}

// Nodes returns a snapshot of all registered nodes in registration order.
func (c *Catalog) Nodes() []*Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Node(nil), c.nodes...)
}

// Lookup returns the registered node with id.
func (c *Catalog) Lookup(id string) (*Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byID[id]
	return n, ok
}

// MustLookup is Lookup returning ErrNodeNotFound.
func (c *Catalog) MustLookup(id string) (*Node, error) {
	n, ok := c.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// Len returns the number of registered nodes.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Unresolved counts nodes that still hide content.
func (c *Catalog) Unresolved() int {
	count := 0
	for _, n := range c.Nodes() {
		if n.NeedsExpansion() {
			count++
		}
	}
	return count
}

// ResolveReference attaches target to ref and registers the target's
// members, making them visible to the next Nodes call.
func (c *Catalog) ResolveReference(ref, target *Node) error {
	if err := ref.SetTarget(target); err != nil {
		return err
	}
	// A racing resolver may have won; register whatever target stuck.
	for _, m := range ref.Target().Members() {
		c.Add(m)
	}
	return nil
}

// AttachMembers loads a group's members and registers them.
func (c *Catalog) AttachMembers(group *Node, members []*Node) error {
	if _, err := group.SetMembers(members); err != nil {
		return err
	}
	for _, m := range group.Members() {
		c.Add(m)
	}
	return nil
}

// ReferencesLoaded reports whether a complete traversal has run over the
// catalog since it was created.
func (c *Catalog) ReferencesLoaded() bool {
	return c.referencesLoaded.Load()
}

// MarkReferencesLoaded records that a complete traversal has run.
func (c *Catalog) MarkReferencesLoaded() {
	c.referencesLoaded.Store(true)
}
