package index

import (
	"context"
	"strings"

	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/internal/match"
)

// Hit is one fast-path result.
type Hit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Index answers a query with hits in index order.
type Index interface {
	Search(ctx context.Context, query string) ([]Hit, error)
}

// Fields returns the lower-cased strings an index matches n against, one per
// search mode, taken from n's effective target.
func Fields(n *catalog.Node) []string {
	f := n.Effective().Fields()
	return []string{
		strings.ToLower(match.SearchString(f, match.Default)),
		strings.ToLower(match.SearchString(f, match.Date)),
		strings.ToLower(match.SearchString(f, match.Event)),
	}
}

// Trigrams returns the distinct three-rune windows of s in first-seen order.
func Trigrams(s string) []string {
	r := []rune(s)
	if len(r) < 3 {
		return nil
	}
	seen := make(map[string]struct{}, len(r)-2)
	out := make([]string, 0, len(r)-2)
	for i := 0; i+3 <= len(r); i++ {
		g := string(r[i : i+3])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// containsAny reports whether any field contains q.
func containsAny(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(f, q) {
			return true
		}
	}
	return false
}
