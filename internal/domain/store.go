package domain

import "context"

// ProgressHistory is a ProgressStore that also answers "continue watching"
// queries and owns an underlying resource.
type ProgressHistory interface {
	ProgressStore

	// ContinueWatching returns the user's unfinished records, newest first
	ContinueWatching(ctx context.Context, userID string) ([]WatchProgress, error)

	Close() error
}
