package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmcdole/kinotv/internal/domain"
	"github.com/mmcdole/kinotv/internal/outcome"
	"github.com/samber/lo"
)

// MapMovie converts a movie DTO to the domain type
func MapMovie(d MovieDTO) domain.Movie {
	return domain.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		Year:        d.Year,
		Rating:      d.Rating,
		Duration:    time.Duration(d.RuntimeMinutes) * time.Minute,
		Genres:      d.Genres,
		PosterURL:   d.PosterURL,
		BackdropURL: d.BackdropURL,
	}
}

// MapShow converts a show DTO to the domain type
func MapShow(d ShowDTO) domain.Show {
	return domain.Show{
		ID:          d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		Year:        d.FirstAirYear,
		Rating:      d.Rating,
		SeasonCount: d.SeasonCount,
		Genres:      d.Genres,
		PosterURL:   d.PosterURL,
		BackdropURL: d.BackdropURL,
	}
}

// MapChannel converts a channel DTO to the domain type
func MapChannel(d ChannelDTO) domain.Channel {
	return domain.Channel{
		ID:       d.ID,
		Name:     d.Name,
		Number:   d.Number,
		Category: d.Category,
		LogoURL:  d.LogoURL,
	}
}

func mapGenres(ds []NamedDTO) []domain.Genre {
	return lo.Map(ds, func(d NamedDTO, _ int) domain.Genre {
		return domain.Genre{ID: d.ID, Name: d.Name}
	})
}

func mapCatalogs(ds []NamedDTO) []domain.Catalog {
	return lo.Map(ds, func(d NamedDTO, _ int) domain.Catalog {
		return domain.Catalog{ID: d.ID, Name: d.Name}
	})
}

func mapProviders(ds []NamedDTO) []domain.StreamingProvider {
	return lo.Map(ds, func(d NamedDTO, _ int) domain.StreamingProvider {
		return domain.StreamingProvider{ID: d.ID, Name: d.Name, LogoURL: d.LogoURL}
	})
}

// DecodeSearchHit reads the content_type discriminator and decodes the rest
// of the object as the matching variant. An unknown discriminator yields an
// error wrapping outcome.ErrUnknownVariant.
func DecodeSearchHit(raw json.RawMessage) (domain.SearchHit, error) {
	var h searchHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return domain.SearchHit{}, err
	}

	switch domain.ContentType(h.ContentType) {
	case domain.ContentMovie:
		var d MovieDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return domain.SearchHit{}, err
		}
		return domain.MovieHit(MapMovie(d)), nil
	case domain.ContentShow:
		var d ShowDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return domain.SearchHit{}, err
		}
		return domain.ShowHit(MapShow(d)), nil
	case domain.ContentChannel:
		var d ChannelDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return domain.SearchHit{}, err
		}
		return domain.ChannelHit(MapChannel(d)), nil
	default:
		return domain.SearchHit{}, fmt.Errorf("content_type %q: %w", h.ContentType, outcome.ErrUnknownVariant)
	}
}
