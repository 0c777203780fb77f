// Package catalogsearch provides incremental substring search over a lazily
// materialized catalog tree.
//
// Some catalog nodes are references (or groups) whose content lives elsewhere
// and must be fetched before it can be matched. A search walks the catalog in
// passes: it matches every node it has not seen yet, resolves the references
// that are still hidden, then scans again one level deeper. Matches are
// appended to the session as soon as they are found, so callers can render
// partial results while resolution continues.
//
// # Quick Start
//
//	cat, _ := catalog.LoadSnapshot(ctx, blobstore.NewLocalStore("./data"), "catalog.json", nil)
//	res := resolver.New(cat, resolver.NewBlob(store, resolver.WithPrefix("refs")))
//
//	s, _ := catalogsearch.New(cat, catalogsearch.WithResolver(res))
//	sess := s.Search(ctx, "storm", catalogsearch.ModeDefault)
//	if err := sess.Wait(ctx); err != nil {
//	    fmt.Println(sess.Message())
//	}
//	for _, r := range sess.Results() {
//	    fmt.Println(r.ID, r.Name)
//	}
//
// # Sessions
//
// Every call to Search starts a new Session and cancels the previous one. A
// canceled session keeps whatever results it had but never changes again;
// work already in flight for it finishes and is discarded.
//
// # Modes
//
// ModeDefault matches name, id and description. ModeDate matches the first
// info entry (a YYYY-MM-DD date by convention) and ModeEvent the second.
//
// # Bounded Traversal
//
// The walk stops after MaxDepth+1 passes (10 by default) even if references
// keep producing new unresolved references, so cyclic or ill-formed catalogs
// terminate. Truncation is silent.
//
// # Fast Path
//
// WithIndex installs a prebuilt index.Index. When present it answers every
// query and no traversal runs.
package catalogsearch
