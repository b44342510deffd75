package models

import "strings"

// CatalogItem is a title as returned by catalog list endpoints (search, trending,
// discover, upcoming).
type CatalogItem struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type,omitempty"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
}

// Kind resolves the media kind. An explicit media_type wins; otherwise a title
// marks a movie and its absence a show.
func (c CatalogItem) Kind() MediaKind {
	switch strings.ToLower(c.MediaType) {
	case "movie":
		return MediaKindMovie
	case "tv":
		return MediaKindTV
	}
	if c.Title != "" {
		return MediaKindMovie
	}
	return MediaKindTV
}

// DisplayName returns the title for movies and the name for shows.
func (c CatalogItem) DisplayName() string {
	if c.Kind() == MediaKindMovie {
		return c.Title
	}
	return c.Name
}

// CatalogPage is the paged list envelope used by list endpoints.
type CatalogPage struct {
	Page         int           `json:"page"`
	Results      []CatalogItem `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// SeasonSummary is one entry of a show's season list.
type SeasonSummary struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	AirDate      string `json:"air_date"`
	EpisodeCount int    `json:"episode_count"`
}

// Network is a broadcast network attached to a show.
type Network struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logo_path"`
}

// WatchProvider is one streaming offer for a title.
type WatchProvider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionProviders groups the offers for one region by offer type.
type RegionProviders struct {
	Link     string          `json:"link,omitempty"`
	Flatrate []WatchProvider `json:"flatrate,omitempty"`
	Rent     []WatchProvider `json:"rent,omitempty"`
	Buy      []WatchProvider `json:"buy,omitempty"`
}

// WatchProviders is the watch/providers payload keyed by region code.
type WatchProviders struct {
	Results map[string]RegionProviders `json:"results"`
}

// ShowDetails is the subset of a show's detail payload the schedule uses.
type ShowDetails struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	PosterPath     string          `json:"poster_path"`
	Seasons        []SeasonSummary `json:"seasons"`
	Networks       []Network       `json:"networks"`
	WatchProviders WatchProviders  `json:"watch/providers"`
}

// CatalogEpisode is one episode of a season.
type CatalogEpisode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
	Overview      string `json:"overview,omitempty"`
}

// SeasonDetails is the payload of a single season.
type SeasonDetails struct {
	ID           int64            `json:"id"`
	SeasonNumber int              `json:"season_number"`
	Name         string           `json:"name"`
	AirDate      string           `json:"air_date"`
	Episodes     []CatalogEpisode `json:"episodes"`
}

// Genre is a catalog genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Keyword is a catalog keyword tag.
type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TitleKeywords covers both keyword shapes: movies use "keywords", shows use "results".
type TitleKeywords struct {
	Keywords []Keyword `json:"keywords,omitempty"`
	Results  []Keyword `json:"results,omitempty"`
}

// All returns the keywords regardless of which field carried them.
func (k TitleKeywords) All() []Keyword {
	if len(k.Keywords) > 0 {
		return k.Keywords
	}
	return k.Results
}

// TitleDetails is the extended detail payload used for affinity tallies.
type TitleDetails struct {
	ID       int64         `json:"id"`
	Genres   []Genre       `json:"genres"`
	Keywords TitleKeywords `json:"keywords"`
}
