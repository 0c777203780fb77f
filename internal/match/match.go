// Package match decides whether a single catalog node matches a query.
package match

import (
	"strings"

	"github.com/chozen2see/catalogsearch/catalog"
)

// Mode selects which fields are searched.
type Mode string

const (
	// Default searches name, id and description.
	Default Mode = "default"
	// Date searches the first info entry.
	Date Mode = "date"
	// Event searches the second info entry.
	Event Mode = "event"
)

// Normalize maps unknown modes to Default.
func Normalize(m Mode) Mode {
	switch m {
	case Date, Event:
		return m
	default:
		return Default
	}
}

// SearchString builds the string matched for f under mode m.
func SearchString(f catalog.Fields, m Mode) string {
	switch Normalize(m) {
	case Date:
		return f.InfoContent(0)
	case Event:
		return f.InfoContent(1)
	default:
		return f.Name + " " + f.ID + " " + f.Description
	}
}

// Evaluate reports whether the lower-cased search string of f contains
// queryLower.
func Evaluate(f catalog.Fields, m Mode, queryLower string) bool {
	return strings.Contains(strings.ToLower(SearchString(f, m)), queryLower)
}
