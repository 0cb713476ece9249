package domain

import (
	"context"
	"time"

	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/samber/mo"
)

// PageRequest addresses one page of a listing. Page is 1-based.
type PageRequest struct {
	Filter Filter
	Page   int
	Size   int
}

// Gateway is the remote catalog service. Every call is idempotent and safe
// to retry; failures are classified before they are returned.
type Gateway interface {
	Movies(ctx context.Context, token string, req PageRequest) outcome.Outcome[Listing[Movie]]
	Shows(ctx context.Context, token string, req PageRequest) outcome.Outcome[Listing[Show]]
	Channels(ctx context.Context, token string, req PageRequest) outcome.Outcome[Listing[Channel]]
	Search(ctx context.Context, token string, req PageRequest) outcome.Outcome[Listing[SearchHit]]

	Genres(ctx context.Context, token string) outcome.Outcome[[]Genre]
	Catalogs(ctx context.Context, token string) outcome.Outcome[[]Catalog]
	Providers(ctx context.Context, token string) outcome.Outcome[[]StreamingProvider]
}

// CredentialProvider supplies the current bearer token, if any.
// Token acquisition itself happens elsewhere.
type CredentialProvider interface {
	CurrentToken(ctx context.Context) mo.Option[string]
}

// ProgressStore persists watch progress records.
type ProgressStore interface {
	// Save upserts the record for (UserID, ContentID); last write wins
	Save(ctx context.Context, p WatchProgress) error

	// Get returns the record for the pair, if one exists
	Get(ctx context.Context, userID, contentID string) (mo.Option[WatchProgress], error)

	// MarkCompleted flags an existing record as completed
	MarkCompleted(ctx context.Context, userID, contentID string) error
}

// Player is the playback element a progress session samples.
type Player interface {
	Position() time.Duration
	Duration() time.Duration
	Seek(pos time.Duration)
}
