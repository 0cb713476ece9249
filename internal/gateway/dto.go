package gateway

// envelope is the shape of every list response. Count is frequently null.
type envelope[D any] struct {
	Count   *int `json:"count"`
	Results []D  `json:"results"`
}

// MovieDTO is a movie as returned by the catalog API
type MovieDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Overview       string   `json:"overview,omitempty"`
	Year           int      `json:"year,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	RuntimeMinutes int      `json:"runtime_minutes,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	PosterURL      string   `json:"poster_url,omitempty"`
	BackdropURL    string   `json:"backdrop_url,omitempty"`
}

// ShowDTO is a TV series as returned by the catalog API
type ShowDTO struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview,omitempty"`
	FirstAirYear int      `json:"first_air_year,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	SeasonCount  int      `json:"season_count,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	PosterURL    string   `json:"poster_url,omitempty"`
	BackdropURL  string   `json:"backdrop_url,omitempty"`
}

// ChannelDTO is a live channel
type ChannelDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Number   int    `json:"number,omitempty"`
	Category string `json:"category,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// NamedDTO covers genres, catalogs and streaming providers
type NamedDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// searchHeader is read first to pick the variant decoder
type searchHeader struct {
	ContentType string `json:"content_type"`
}
