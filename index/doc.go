// Package index provides prebuilt substring indexes used as the search fast
// path.
//
// An index answers a query without walking the catalog. Build one after the
// catalog's references have been loaded; nodes that were unresolved at build
// time are not found.
//
// Memory keeps a trigram posting list per three-rune window of every
// searchable field, stored as roaring bitmaps over insertion ordinals. A query
// intersects the bitmaps of its own trigrams and then confirms each candidate
// with a substring test. Queries shorter than three runes scan every entry.
// The redis subpackage stores the same layout in redis sets.
package index
