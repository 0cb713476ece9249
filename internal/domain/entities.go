package domain

import (
	"fmt"
	"time"

	"github.com/samber/mo"
)

// ContentType distinguishes the kinds of catalog entities
type ContentType string

const (
	ContentMovie   ContentType = "movie"
	ContentShow    ContentType = "show"
	ContentChannel ContentType = "channel"
)

// Movie is a single playable title
type Movie struct {
	ID          string        // Server-specific unique identifier
	Title       string        // Display title
	Overview    string        // Plot synopsis
	Year        int           // Release year
	Rating      float64       // 0-10 audience rating
	Duration    time.Duration // Total runtime
	Genres      []string      // Genre names
	PosterURL   string
	BackdropURL string
}

func (m Movie) GetID() string               { return m.ID }
func (m Movie) GetTitle() string            { return m.Title }
func (m Movie) GetYear() int                { return m.Year }
func (m Movie) GetContentType() ContentType { return ContentMovie }

// FormattedDuration returns the duration in a human-readable format
func (m Movie) FormattedDuration() string {
	h := int(m.Duration.Hours())
	mins := int(m.Duration.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Show is a TV series container
type Show struct {
	ID          string
	Title       string
	Overview    string
	Year        int // First air year
	Rating      float64
	SeasonCount int
	Genres      []string
	PosterURL   string
	BackdropURL string
}

func (s Show) GetID() string               { return s.ID }
func (s Show) GetTitle() string            { return s.Title }
func (s Show) GetYear() int                { return s.Year }
func (s Show) GetContentType() ContentType { return ContentShow }

// Description returns secondary info, e.g. "3 Seasons"
func (s Show) Description() string {
	if s.SeasonCount == 1 {
		return "1 Season"
	}
	return fmt.Sprintf("%d Seasons", s.SeasonCount)
}

// Channel is a live channel
type Channel struct {
	ID       string
	Name     string
	Number   int
	Category string
	LogoURL  string
}

func (c Channel) GetID() string               { return c.ID }
func (c Channel) GetTitle() string            { return c.Name }
func (c Channel) GetYear() int                { return 0 }
func (c Channel) GetContentType() ContentType { return ContentChannel }

// SearchHit is one search result. Exactly one of the variants is set,
// matching ContentType.
type SearchHit struct {
	ContentType ContentType
	Movie       mo.Option[Movie]
	Show        mo.Option[Show]
	Channel     mo.Option[Channel]
}

func MovieHit(m Movie) SearchHit {
	return SearchHit{ContentType: ContentMovie, Movie: mo.Some(m)}
}

func ShowHit(s Show) SearchHit {
	return SearchHit{ContentType: ContentShow, Show: mo.Some(s)}
}

func ChannelHit(c Channel) SearchHit {
	return SearchHit{ContentType: ContentChannel, Channel: mo.Some(c)}
}

// Entity returns the populated variant.
func (h SearchHit) Entity() Entity {
	switch h.ContentType {
	case ContentMovie:
		return h.Movie.OrEmpty()
	case ContentShow:
		return h.Show.OrEmpty()
	default:
		return h.Channel.OrEmpty()
	}
}

func (h SearchHit) GetID() string               { return h.Entity().GetID() }
func (h SearchHit) GetTitle() string            { return h.Entity().GetTitle() }
func (h SearchHit) GetYear() int                { return h.Entity().GetYear() }
func (h SearchHit) GetContentType() ContentType { return h.ContentType }

// Genre, Catalog and StreamingProvider are the filter dimensions of a listing.
type Genre struct {
	ID   string
	Name string
}

type Catalog struct {
	ID   string
	Name string
}

type StreamingProvider struct {
	ID      string
	Name    string
	LogoURL string
}

// Listing is one page of entities as returned by the gateway.
// TotalCount is frequently absent and is never used to infer the end of a
// sequence.
type Listing[T any] struct {
	Items      []T
	TotalCount mo.Option[int]
}
