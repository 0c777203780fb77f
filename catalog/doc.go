// Package catalog models a lazily-materialized, tree-shaped catalog of data-layer
// descriptors.
//
// A Catalog is a registry of nodes in registration order. Some nodes are
// references (they point at a target that has not been loaded yet) or groups
// (containers whose members may have to be fetched). Resolving a reference
// attaches its target and registers the target's members, which is how new
// nodes become visible to callers that re-read Catalog.Nodes.
//
// Resolution is monotonic: once a reference has a target, or a group has its
// members, that state never changes for the lifetime of the catalog.
package catalog
