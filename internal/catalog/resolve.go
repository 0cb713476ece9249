package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/samber/lo"
)

// maxTypoRatio bounds the edit distance accepted when nothing matches as a
// subsequence, as a fraction of the query length
const maxTypoRatio = 3

// ResolveGenre finds the genre filter whose name best matches name
func (s *Service) ResolveGenre(ctx context.Context, name string) outcome.Outcome[domain.Filter] {
	return resolveFilter(s.Genres(ctx), name, "genre",
		func(g domain.Genre) string { return g.Name },
		func(g domain.Genre) domain.Filter { return domain.ByGenre(g.ID) })
}

// ResolveCatalog finds the catalog filter whose name best matches name
func (s *Service) ResolveCatalog(ctx context.Context, name string) outcome.Outcome[domain.Filter] {
	return resolveFilter(s.Catalogs(ctx), name, "catalog",
		func(c domain.Catalog) string { return c.Name },
		func(c domain.Catalog) domain.Filter { return domain.ByCatalog(c.ID) })
}

// ResolveProvider finds the provider filter whose name best matches name
func (s *Service) ResolveProvider(ctx context.Context, name string) outcome.Outcome[domain.Filter] {
	return resolveFilter(s.Providers(ctx), name, "provider",
		func(p domain.StreamingProvider) string { return p.Name },
		func(p domain.StreamingProvider) domain.Filter { return domain.ByProvider(p.ID) })
}

func resolveFilter[T any](list outcome.Outcome[[]T], name, what string, nameOf func(T) string, toFilter func(T) domain.Filter) outcome.Outcome[domain.Filter] {
	items, err := list.Unpack()
	if err != nil {
		return outcome.FromError[domain.Filter](err)
	}
	best, ok := bestMatch(name, lo.Map(items, func(t T, _ int) string { return nameOf(t) }))
	if !ok {
		return outcome.Fail[domain.Filter](outcome.NotFound, fmt.Sprintf("no %s matches %q", what, name))
	}
	return outcome.Success(toFilter(items[best]))
}

// bestMatch returns the index of the name closest to query: an exact
// case-insensitive match, then the tightest subsequence match, then the
// nearest name within a small edit distance.
func bestMatch(query string, names []string) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" || len(names) == 0 {
		return 0, false
	}

	if i := lo.IndexOf(lo.Map(names, func(n string, _ int) string { return strings.ToLower(n) }), strings.ToLower(query)); i >= 0 {
		return i, true
	}

	ranks := fuzzy.RankFindFold(query, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].OriginalIndex, true
	}

	lower := strings.ToLower(query)
	bestIdx, bestDist := -1, len(lower)/maxTypoRatio+1
	for i, n := range names {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(n)); d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	return bestIdx, bestIdx >= 0
}
