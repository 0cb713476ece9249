package collection

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// titleIndex implements fuzzy.Source over lowercased titles
type titleIndex []string

func (t titleIndex) String(i int) string { return t[i] }
func (t titleIndex) Len() int            { return len(t) }

// Filter narrows already-loaded items to those whose title fuzzy-matches
// query, best match first. An empty query returns items unchanged.
func Filter[T any](items []T, query string, title func(T) string) []T {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	idx := make(titleIndex, len(items))
	for i, item := range items {
		idx[i] = strings.ToLower(title(item))
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), idx)
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}
