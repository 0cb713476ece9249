package paging

import (
	"context"
	"log/slog"

	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/samber/mo"
)

// FetchFunc fetches one page from the gateway. It is the only thing that
// differs between the per-entity, per-filter sources.
type FetchFunc[T any] func(ctx context.Context, token string, c Cursor) outcome.Outcome[domain.Listing[T]]

// Source loads individual pages. It holds no page state and is safe for
// concurrent use.
type Source[T any] struct {
	name   string
	fetch  FetchFunc[T]
	creds  domain.CredentialProvider
	size   int
	logger *slog.Logger
}

// NewSource creates a page source. name is used in logs only.
func NewSource[T any](name string, fetch FetchFunc[T], creds domain.CredentialProvider, pageSize int, logger *slog.Logger) *Source[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Source[T]{
		name:   name,
		fetch:  fetch,
		creds:  creds,
		size:   pageSize,
		logger: logger,
	}
}

// Name returns the label the source was created with
func (s *Source[T]) Name() string { return s.name }

// PageSize returns the fixed page size
func (s *Source[T]) PageSize() int { return s.size }

// Load fetches a single page.
//
// A missing token fails with Unauthorized without calling the gateway.
// Gateway failures are returned unchanged.
func (s *Source[T]) Load(ctx context.Context, page int) outcome.Outcome[Page[T]] {
	c := Cursor{Page: page, Size: s.size}
	if err := c.Validate(); err != nil {
		return outcome.Fail[Page[T]](outcome.ValidationError, err.Error())
	}

	token, ok := s.creds.CurrentToken(ctx).Get()
	if !ok {
		s.logger.Debug("no credential, skipping fetch", "source", s.name, "page", page)
		return outcome.Fail[Page[T]](outcome.Unauthorized, domain.ErrNoCredential.Error())
	}

	s.logger.Debug("fetching page", "source", s.name, "page", page, "size", s.size)
	return outcome.Map(s.fetch(ctx, token, c), func(l domain.Listing[T]) Page[T] {
		return newPage(page, l.Items)
	})
}

func newPage[T any](index int, items []T) Page[T] {
	p := Page[T]{Index: index, Items: items}
	if index > 1 {
		p.Prev = mo.Some(index - 1)
	}
	if len(items) > 0 {
		p.Next = mo.Some(index + 1)
	}
	return p
}
