package domain

import "time"

// WatchProgress is the persisted playback position of one user on one
// piece of content. There is at most one record per (UserID, ContentID).
type WatchProgress struct {
	UserID      string      `json:"user_id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"` // movie or show
	PositionMs  uint64      `json:"position_ms"`
	DurationMs  uint64      `json:"duration_ms"`
	Completed   bool        `json:"completed"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Position returns the saved position as a duration
func (p WatchProgress) Position() time.Duration {
	return time.Duration(p.PositionMs) * time.Millisecond
}

// Playable identifies the content a playback session is about
type Playable struct {
	UserID      string
	ContentID   string
	ContentType ContentType
}
