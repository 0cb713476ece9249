// Package gateway is the HTTP client for the remote catalog API. Every
// transport failure is classified here, at the boundary, and returned as an
// outcome.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/patrickmn/go-cache"
	"github.com/samber/mo"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultBaseRetryDelay = 500 * time.Millisecond
	defaultListTTL        = time.Hour
	defaultRequestsPerSec = 10
	defaultBurst          = 5
)

// Config configures a Client. Zero fields take defaults.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration // first backoff; doubles per attempt
	RequestsPerSecond float64
	Burst             int
	ListTTL           time.Duration // genres, catalogs and providers
}

// Client implements domain.Gateway over the catalog HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	lists      *cache.Cache
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a catalog API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultBaseRetryDelay
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = defaultListTTL
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		lists:      cache.New(cfg.ListTTL, 10*time.Minute),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// doRequest performs an authenticated GET against the API.
// 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, token, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		c.logger.Debug("catalog request", "path", path, "query", query.Encode(), "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("catalog request failed", "error", err, "path", path)
			// only connectivity failures mean the server is offline
			switch outcome.Classify(err) {
			case outcome.NoConnectivity, outcome.Timeout:
				return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
			default:
				return nil, fmt.Errorf("catalog request: %w", err)
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		statusErr := &outcome.StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %w", domain.ErrAuthFailed, statusErr)
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			lastErr = statusErr
			c.logger.Warn("catalog server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", c.maxRetries,
				"path", path,
			)
			continue
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			c.logger.Error("catalog request error", "status", resp.StatusCode, "path", path)
			return nil, statusErr
		}

		return body, nil
	}

	c.logger.Error("catalog request failed after retries", "error", lastErr, "path", path)
	return nil, lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func pageQuery(req domain.PageRequest) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.Size))
	switch req.Filter.By {
	case domain.FilterGenre:
		q.Set("genre", req.Filter.Value)
	case domain.FilterCatalog:
		q.Set("catalog", req.Filter.Value)
	case domain.FilterProvider:
		q.Set("provider", req.Filter.Value)
	case domain.FilterQuery:
		q.Set("query", req.Filter.Value)
	}
	return q
}

// fetchListing requests one page and decodes each result with conv
func fetchListing[D, T any](ctx context.Context, c *Client, token, path string, query url.Values, conv func(D) (T, error)) outcome.Outcome[domain.Listing[T]] {
	body, err := c.doRequest(ctx, token, path, query)
	if err != nil {
		return outcome.FromError[domain.Listing[T]](err)
	}

	var env envelope[D]
	if err := json.Unmarshal(body, &env); err != nil {
		return outcome.FromError[domain.Listing[T]](fmt.Errorf("failed to parse %s: %w", path, err))
	}

	items := make([]T, 0, len(env.Results))
	for _, d := range env.Results {
		item, err := conv(d)
		if err != nil {
			return outcome.FromError[domain.Listing[T]](fmt.Errorf("failed to parse %s: %w", path, err))
		}
		items = append(items, item)
	}
	return outcome.Success(domain.Listing[T]{
		Items:      items,
		TotalCount: mo.PointerToOption(env.Count),
	})
}

func infallible[D, T any](fn func(D) T) func(D) (T, error) {
	return func(d D) (T, error) { return fn(d), nil }
}

// Movies returns one page of movies
func (c *Client) Movies(ctx context.Context, token string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Movie]] {
	return fetchListing(ctx, c, token, "/api/v1/movies", pageQuery(req), infallible(MapMovie))
}

// Shows returns one page of shows
func (c *Client) Shows(ctx context.Context, token string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Show]] {
	return fetchListing(ctx, c, token, "/api/v1/shows", pageQuery(req), infallible(MapShow))
}

// Channels returns one page of channels
func (c *Client) Channels(ctx context.Context, token string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.Channel]] {
	return fetchListing(ctx, c, token, "/api/v1/channels", pageQuery(req), infallible(MapChannel))
}

// Search returns one page of mixed results
func (c *Client) Search(ctx context.Context, token string, req domain.PageRequest) outcome.Outcome[domain.Listing[domain.SearchHit]] {
	if req.Filter.By != domain.FilterQuery {
		return outcome.Fail[domain.Listing[domain.SearchHit]](outcome.ValidationError, "search requires a query filter")
	}
	return fetchListing(ctx, c, token, "/api/v1/search", pageQuery(req), DecodeSearchHit)
}

// fetchList requests a small unpaged list, memoised for the list TTL
func fetchList[T any](ctx context.Context, c *Client, token, path string, conv func([]NamedDTO) []T) outcome.Outcome[[]T] {
	key := path + "|" + token
	if cached, found := c.lists.Get(key); found {
		if items, ok := cached.([]T); ok {
			return outcome.Success(items)
		}
	}

	body, err := c.doRequest(ctx, token, path, nil)
	if err != nil {
		return outcome.FromError[[]T](err)
	}
	var env envelope[NamedDTO]
	if err := json.Unmarshal(body, &env); err != nil {
		return outcome.FromError[[]T](fmt.Errorf("failed to parse %s: %w", path, err))
	}

	items := conv(env.Results)
	c.lists.Set(key, items, cache.DefaultExpiration)
	return outcome.Success(items)
}

func (c *Client) Genres(ctx context.Context, token string) outcome.Outcome[[]domain.Genre] {
	return fetchList(ctx, c, token, "/api/v1/genres", mapGenres)
}

func (c *Client) Catalogs(ctx context.Context, token string) outcome.Outcome[[]domain.Catalog] {
	return fetchList(ctx, c, token, "/api/v1/catalogs", mapCatalogs)
}

func (c *Client) Providers(ctx context.Context, token string) outcome.Outcome[[]domain.StreamingProvider] {
	return fetchList(ctx, c, token, "/api/v1/providers", mapProviders)
}

// InvalidateLists drops memoised genres, catalogs and providers
func (c *Client) InvalidateLists() {
	c.lists.Flush()
}
