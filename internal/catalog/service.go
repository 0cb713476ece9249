package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/kinotv/internal/collection"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/mmcdole/kinotv/internal/paging"
)

// Config tunes the listings created by a Service
type Config struct {
	PageSize int           // 0 uses paging.DefaultPageSize
	Grace    time.Duration // 0 uses collection.DefaultGrace
}

// Service hands out shared listings of catalog entities. Consumers asking
// for the same listing share one pager.
type Service struct {
	gateway domain.Gateway
	creds   domain.CredentialProvider
	cfg     Config
	logger  *slog.Logger

	movies   *collection.Cache[domain.Filter, domain.Movie]
	shows    *collection.Cache[domain.Filter, domain.Show]
	channels *collection.Cache[domain.Filter, domain.Channel]
	search   *collection.Cache[string, domain.SearchHit]
}

// NewService creates a catalog service
func NewService(gw domain.Gateway, creds domain.CredentialProvider, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = paging.DefaultPageSize
	}
	s := &Service{
		gateway: gw,
		creds:   creds,
		cfg:     cfg,
		logger:  logger,
	}

	s.movies = collection.NewCache(func(f domain.Filter) *paging.Pager[domain.Movie] {
		return newPager(s, Key{Kind: KindMovies, Filter: f}, MovieFetch(gw, f))
	}, cfg.Grace, logger)
	s.shows = collection.NewCache(func(f domain.Filter) *paging.Pager[domain.Show] {
		return newPager(s, Key{Kind: KindShows, Filter: f}, ShowFetch(gw, f))
	}, cfg.Grace, logger)
	s.channels = collection.NewCache(func(f domain.Filter) *paging.Pager[domain.Channel] {
		return newPager(s, Key{Kind: KindChannels, Filter: f}, ChannelFetch(gw, f))
	}, cfg.Grace, logger)
	s.search = collection.NewCache(func(q string) *paging.Pager[domain.SearchHit] {
		return newPager(s, Key{Kind: KindSearch, Filter: domain.ByQuery(q)}, SearchFetch(gw, q))
	}, cfg.Grace, logger)

	return s
}

func newPager[T any](s *Service, key Key, fetch paging.FetchFunc[T]) *paging.Pager[T] {
	name := key.String()
	src := paging.NewSource(name, fetch, s.creds, s.cfg.PageSize, s.logger)
	return paging.NewPager(src, s.logger)
}

// Movies returns the movie listing for f. The zero filter is the hero row.
func (s *Service) Movies(f domain.Filter) *collection.Handle[domain.Movie] {
	return s.movies.Subscribe(f)
}

func (s *Service) Shows(f domain.Filter) *collection.Handle[domain.Show] {
	return s.shows.Subscribe(f)
}

func (s *Service) Channels(f domain.Filter) *collection.Handle[domain.Channel] {
	return s.channels.Subscribe(f)
}

// Search returns the mixed result listing for query. Surrounding whitespace
// is ignored so "heat" and "heat " share a listing.
func (s *Service) Search(query string) *collection.Handle[domain.SearchHit] {
	return s.search.Subscribe(strings.TrimSpace(query))
}

// Live returns how many listings currently hold a pager
func (s *Service) Live() int {
	return s.movies.Len() + s.shows.Len() + s.channels.Len() + s.search.Len()
}

// Close tears down every listing
func (s *Service) Close() {
	s.movies.Close()
	s.shows.Close()
	s.channels.Close()
	s.search.Close()
}

// withToken runs fn with the current credential, failing with Unauthorized
// when there is none.
func withToken[T any](ctx context.Context, creds domain.CredentialProvider, fn func(token string) outcome.Outcome[T]) outcome.Outcome[T] {
	token, ok := creds.CurrentToken(ctx).Get()
	if !ok {
		return outcome.Fail[T](outcome.Unauthorized, domain.ErrNoCredential.Error())
	}
	return fn(token)
}

func (s *Service) Genres(ctx context.Context) outcome.Outcome[[]domain.Genre] {
	return withToken(ctx, s.creds, func(token string) outcome.Outcome[[]domain.Genre] {
		return s.gateway.Genres(ctx, token)
	})
}

func (s *Service) Catalogs(ctx context.Context) outcome.Outcome[[]domain.Catalog] {
	return withToken(ctx, s.creds, func(token string) outcome.Outcome[[]domain.Catalog] {
		return s.gateway.Catalogs(ctx, token)
	})
}

func (s *Service) Providers(ctx context.Context) outcome.Outcome[[]domain.StreamingProvider] {
	return withToken(ctx, s.creds, func(token string) outcome.Outcome[[]domain.StreamingProvider] {
		return s.gateway.Providers(ctx, token)
	})
}
