// Package catalog binds the generic paging engine to the catalog entities.
// Each listing is a Kind narrowed by a domain.Filter; all of them share the
// same Source and Pager code and differ only in the gateway call they make.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/mmcdole/kinotv/internal/paging"
)

// Kind is the entity a listing returns
type Kind int

const (
	KindMovies Kind = iota
	KindShows
	KindChannels
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindMovies:
		return "movies"
	case KindShows:
		return "shows"
	case KindChannels:
		return "channels"
	case KindSearch:
		return "search"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Key identifies one listing
type Key struct {
	Kind   Kind
	Filter domain.Filter
}

func (k Key) String() string {
	return k.Kind.String() + "/" + k.Filter.String()
}

// Validate reports whether the filter makes sense for the kind. Entity
// listings take no free-text query; search takes nothing else.
func (k Key) Validate() error {
	switch k.Kind {
	case KindMovies, KindShows, KindChannels:
		if k.Filter.By == domain.FilterQuery {
			return fmt.Errorf("%s cannot be filtered by query", k.Kind)
		}
	case KindSearch:
		if k.Filter.By != domain.FilterQuery {
			return fmt.Errorf("search requires a query, got %s", k.Filter)
		}
		if strings.TrimSpace(k.Filter.Value) == "" {
			return fmt.Errorf("search query is empty")
		}
	default:
		return fmt.Errorf("unknown kind %s", k.Kind)
	}
	return nil
}

// listFunc is the shape shared by the paged gateway methods
type listFunc[T any] func(ctx context.Context, token string, req domain.PageRequest) outcome.Outcome[domain.Listing[T]]

// specialize binds a gateway call to one key. An invalid key fails every
// load with ValidationError without reaching the gateway.
func specialize[T any](key Key, list listFunc[T]) paging.FetchFunc[T] {
	if err := key.Validate(); err != nil {
		return func(context.Context, string, paging.Cursor) outcome.Outcome[domain.Listing[T]] {
			return outcome.Fail[domain.Listing[T]](outcome.ValidationError, err.Error())
		}
	}
	return func(ctx context.Context, token string, c paging.Cursor) outcome.Outcome[domain.Listing[T]] {
		return list(ctx, token, domain.PageRequest{
			Filter: key.Filter,
			Page:   c.Page,
			Size:   c.Size,
		})
	}
}

func MovieFetch(gw domain.Gateway, f domain.Filter) paging.FetchFunc[domain.Movie] {
	return specialize[domain.Movie](Key{Kind: KindMovies, Filter: f}, gw.Movies)
}

func ShowFetch(gw domain.Gateway, f domain.Filter) paging.FetchFunc[domain.Show] {
	return specialize[domain.Show](Key{Kind: KindShows, Filter: f}, gw.Shows)
}

func ChannelFetch(gw domain.Gateway, f domain.Filter) paging.FetchFunc[domain.Channel] {
	return specialize[domain.Channel](Key{Kind: KindChannels, Filter: f}, gw.Channels)
}

func SearchFetch(gw domain.Gateway, query string) paging.FetchFunc[domain.SearchHit] {
	return specialize[domain.SearchHit](Key{Kind: KindSearch, Filter: domain.ByQuery(query)}, gw.Search)
}
