package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/kinotv/internal/collection"
	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/mmcdole/kinotv/internal/paging"
	"github.com/samber/mo"
)

type creds struct{ token mo.Option[string] }

func (c creds) CurrentToken(context.Context) mo.Option[string] { return c.token }

var signedIn = creds{token: mo.Some("tok")}

// fakeGateway serves totalMovies movies split into pages and records every
// paged request.
type fakeGateway struct {
	mu          sync.Mutex
	totalMovies int
	requests    []domain.PageRequest
	listCalls   int

	genres    []domain.Genre
	catalogs  []domain.Catalog
	providers []domain.StreamingProvider
}

func (g *fakeGateway) record(req domain.PageRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
}

func (g *fakeGateway) recorded() []domain.PageRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.PageRequest(nil), g.requests...)
}

func (g *fakeGateway) Movies(_ context.Context, _ string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Movie]] {
	g.record(req)
	var out []domain.Movie
	for i := (req.Page - 1) * req.Size; i < req.Page*req.Size && i < g.totalMovies; i++ {
		out = append(out, domain.Movie{ID: fmt.Sprintf("m%d", i), Title: fmt.Sprintf("Movie %d", i)})
	}
	return outcome.Success(domain.Listing[domain.Movie]{Items: out})
}

func (g *fakeGateway) Shows(_ context.Context, _ string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Show]] {
	g.record(req)
	return outcome.Success(domain.Listing[domain.Show]{})
}

func (g *fakeGateway) Channels(_ context.Context, _ string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Channel]] {
	g.record(req)
	return outcome.Success(domain.Listing[domain.Channel]{})
}

func (g *fakeGateway) Search(_ context.Context, _ string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.SearchHit]] {
	g.record(req)
	hit := domain.MovieHit(domain.Movie{ID: "m1", Title: req.Filter.Value})
	if req.Page > 1 {
		return outcome.Success(domain.Listing[domain.SearchHit]{})
	}
	return outcome.Success(domain.Listing[domain.SearchHit]{Items: []domain.SearchHit{hit}})
}

func (g *fakeGateway) Genres(context.Context, string) outcome.Outcome[[]domain.Genre] {
	g.mu.Lock()
	g.listCalls++
	g.mu.Unlock()
	return outcome.Success(g.genres)
}

func (g *fakeGateway) Catalogs(context.Context, string) outcome.Outcome[[]domain.Catalog] {
	return outcome.Success(g.catalogs)
}

func (g *fakeGateway) Providers(context.Context, string) outcome.Outcome[[]domain.StreamingProvider] {
	return outcome.Success(g.providers)
}

func waitHandle[T any](t *testing.T, h *collection.Handle[T], desc string, cond func(paging.Snapshot[T]) bool) paging.Snapshot[T] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := h.Snapshot(); cond(s) {
			return s
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; states: %+v", desc, h.Snapshot().States)
	return paging.Snapshot[T]{}
}

func settled[T any](s paging.Snapshot[T]) bool {
	return s.States.Refresh.Status != paging.Loading &&
		s.States.Append.Status != paging.Loading &&
		s.States.Prepend.Status != paging.Loading
}

func TestKeyValidate(t *testing.T) {
	tests := []struct {
		key     Key
		wantErr bool
	}{
		{Key{Kind: KindMovies}, false},
		{Key{Kind: KindShows, Filter: domain.ByGenre("18")}, false},
		{Key{Kind: KindChannels, Filter: domain.ByProvider("8")}, false},
		{Key{Kind: KindMovies, Filter: domain.ByQuery("heat")}, true},
		{Key{Kind: KindSearch, Filter: domain.ByQuery("heat")}, false},
		{Key{Kind: KindSearch, Filter: domain.ByQuery("  ")}, true},
		{Key{Kind: KindSearch, Filter: domain.ByGenre("28")}, true},
		{Key{Kind: Kind(9)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			if err := tt.key.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpecializedFetchForwardsFilter(t *testing.T) {
	gw := &fakeGateway{totalMovies: 5}
	fetch := MovieFetch(gw, domain.ByCatalog("top"))
	o := fetch(context.Background(), "tok", paging.Cursor{Page: 2, Size: 3})
	listing, err := o.Unpack()
	if err != nil {
		t.Fatal(err)
	}
	if len(listing.Items) != 2 {
		t.Errorf("items = %d, want 2", len(listing.Items))
	}
	want := []domain.PageRequest{{Filter: domain.ByCatalog("top"), Page: 2, Size: 3}}
	if diff := cmp.Diff(want, gw.recorded()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidKeyNeverReachesGateway(t *testing.T) {
	gw := &fakeGateway{}
	o := MovieFetch(gw, domain.ByQuery("heat"))(context.Background(), "tok", paging.Cursor{Page: 1, Size: 30})
	f, ok := o.Failure()
	if !ok || f.Kind != outcome.ValidationError {
		t.Errorf("outcome = %+v, want ValidationError", f)
	}
	if n := len(gw.recorded()); n != 0 {
		t.Errorf("gateway called %d times", n)
	}
}

// A genre listing with exactly one full page stops after a single empty
// page and never asks again.
func TestGenreListingReachesEnd(t *testing.T) {
	gw := &fakeGateway{totalMovies: 30}
	svc := NewService(gw, signedIn, Config{PageSize: 30}, nil)
	defer svc.Close()

	h := svc.Movies(domain.ByGenre("Action"))
	defer h.Close()

	waitHandle(t, h, "first page", func(s paging.Snapshot[domain.Movie]) bool {
		return len(s.Items) == 30 && settled(s)
	})
	h.Append()
	s := waitHandle(t, h, "append end", func(s paging.Snapshot[domain.Movie]) bool {
		return s.States.Append.EndReached && settled(s)
	})
	if len(s.Items) != 30 {
		t.Errorf("items = %d, want 30", len(s.Items))
	}

	h.Append()
	h.Append()
	time.Sleep(20 * time.Millisecond)

	want := []domain.PageRequest{
		{Filter: domain.ByGenre("Action"), Page: 1, Size: 30},
		{Filter: domain.ByGenre("Action"), Page: 2, Size: 30},
	}
	if diff := cmp.Diff(want, gw.recorded()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestSameListingIsShared(t *testing.T) {
	gw := &fakeGateway{totalMovies: 3}
	svc := NewService(gw, signedIn, Config{PageSize: 10}, nil)
	defer svc.Close()

	a := svc.Movies(domain.Filter{})
	b := svc.Movies(domain.Filter{})
	c := svc.Movies(domain.ByGenre("35"))
	defer a.Close()
	defer b.Close()
	defer c.Close()

	waitHandle(t, a, "hero row", func(s paging.Snapshot[domain.Movie]) bool { return len(s.Items) == 3 })
	waitHandle(t, c, "genre row", func(s paging.Snapshot[domain.Movie]) bool { return len(s.Items) == 3 })
	if got := len(b.Snapshot().Items); got != 3 {
		t.Errorf("second handle sees %d items, want 3", got)
	}
	if svc.Live() != 2 {
		t.Errorf("Live() = %d, want 2", svc.Live())
	}

	first := 0
	for _, r := range gw.recorded() {
		if r.Page == 1 {
			first++
		}
	}
	if first != 2 {
		t.Errorf("page 1 fetched %d times, want 2", first)
	}
}

func TestSearchTrimsQuery(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, signedIn, Config{}, nil)
	defer svc.Close()

	a := svc.Search("heat")
	b := svc.Search(" heat ")
	defer a.Close()
	defer b.Close()

	s := waitHandle(t, a, "search results", func(s paging.Snapshot[domain.SearchHit]) bool { return len(s.Items) == 1 })
	if got := s.Items[0].GetTitle(); got != "heat" {
		t.Errorf("title = %q", got)
	}
	if svc.Live() != 1 {
		t.Errorf("Live() = %d, want 1", svc.Live())
	}
}

func TestListingWithoutCredential(t *testing.T) {
	gw := &fakeGateway{totalMovies: 3}
	svc := NewService(gw, creds{}, Config{}, nil)
	defer svc.Close()

	h := svc.Channels(domain.Filter{})
	defer h.Close()
	s := waitHandle(t, h, "refresh error", func(s paging.Snapshot[domain.Channel]) bool {
		return s.States.Refresh.Status == paging.Error
	})
	if f := s.States.Refresh.Failure.OrEmpty(); f.Kind != outcome.Unauthorized {
		t.Errorf("Kind = %v, want Unauthorized", f.Kind)
	}
	if n := len(gw.recorded()); n != 0 {
		t.Errorf("gateway called %d times", n)
	}
}

func TestResolveFilters(t *testing.T) {
	gw := &fakeGateway{
		genres: []domain.Genre{
			{ID: "28", Name: "Action"},
			{ID: "12", Name: "Adventure"},
			{ID: "878", Name: "Science Fiction"},
			{ID: "35", Name: "Comedy"},
		},
		catalogs:  []domain.Catalog{{ID: "top", Name: "Top Rated"}, {ID: "new", Name: "New Releases"}},
		providers: []domain.StreamingProvider{{ID: "8", Name: "Netflix"}, {ID: "9", Name: "Prime Video"}},
	}
	svc := NewService(gw, signedIn, Config{}, nil)
	defer svc.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		resolve func(context.Context, string) outcome.Outcome[domain.Filter]
		query   string
		want    domain.Filter
	}{
		{"exact", svc.ResolveGenre, "action", domain.ByGenre("28")},
		{"subsequence", svc.ResolveGenre, "sci fi", domain.ByGenre("878")},
		{"typo", svc.ResolveGenre, "comdey", domain.ByGenre("35")},
		{"catalog", svc.ResolveCatalog, "top", domain.ByCatalog("top")},
		{"provider", svc.ResolveProvider, "prime", domain.ByProvider("9")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolve(ctx, tt.query).Unpack()
			if err != nil {
				t.Fatalf("resolve(%q) error = %v", tt.query, err)
			}
			if got != tt.want {
				t.Errorf("resolve(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}

	f, ok := svc.ResolveGenre(ctx, "documentary").Failure()
	if !ok || f.Kind != outcome.NotFound {
		t.Errorf("unknown genre = %+v, want NotFound", f)
	}
}

func TestResolveWithoutCredential(t *testing.T) {
	gw := &fakeGateway{genres: []domain.Genre{{ID: "28", Name: "Action"}}}
	svc := NewService(gw, creds{}, Config{}, nil)
	defer svc.Close()

	f, ok := svc.ResolveGenre(context.Background(), "Action").Failure()
	if !ok || f.Kind != outcome.Unauthorized {
		t.Errorf("failure = %+v, want Unauthorized", f)
	}
	if gw.listCalls != 0 {
		t.Errorf("gateway called %d times", gw.listCalls)
	}
}
