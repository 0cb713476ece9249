package domain

// Entity is the common shape of everything a paged listing can hold.
// Movies, shows, channels and search hits implement it directly.
type Entity interface {
	// GetID returns the server-specific identifier
	GetID() string

	// GetTitle returns the display title
	GetTitle() string

	// GetYear returns the release/air year (0 if not applicable)
	GetYear() int

	// GetContentType returns the entity kind
	GetContentType() ContentType
}
