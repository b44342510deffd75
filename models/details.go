package models

// Credit is one cast member of a title.
type Credit struct {
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// TitleDetailsFull is the detail payload fetched with watch providers and credits.
type TitleDetailsFull struct {
	CatalogItem
	Genres           []Genre        `json:"genres"`
	Runtime          int            `json:"runtime,omitempty"`
	NumberOfSeasons  int            `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int            `json:"number_of_episodes,omitempty"`
	Status           string         `json:"status,omitempty"`
	Tagline          string         `json:"tagline,omitempty"`
	WatchProviders   WatchProviders `json:"watch/providers"`
	Credits          struct {
		Cast []Credit `json:"cast"`
	} `json:"credits"`
}

// ProviderOffer is a streaming offer annotated with the user's subscription.
type ProviderOffer struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	LogoPath   string `json:"logoPath"`
	LogoURL    string `json:"logoUrl"`
	Subscribed bool   `json:"subscribed"`
}

// TitleView is the details modal for one title.
type TitleView struct {
	Kind             MediaKind       `json:"kind"`
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Overview         string          `json:"overview"`
	Tagline          string          `json:"tagline,omitempty"`
	PosterPath       string          `json:"posterPath,omitempty"`
	PosterURL        string          `json:"posterUrl"`
	BackdropPath     string          `json:"backdropPath,omitempty"`
	Date             string          `json:"date,omitempty"`
	Status           string          `json:"status,omitempty"`
	Genres           []string        `json:"genres"`
	Runtime          int             `json:"runtime,omitempty"`
	NumberOfSeasons  int             `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int             `json:"numberOfEpisodes,omitempty"`
	VoteAverage      float64         `json:"voteAverage,omitempty"`
	Providers        []ProviderOffer `json:"providers"`
	Cast             []Credit        `json:"cast"`
	IsFavorite       bool            `json:"isFavorite"`
	ManualTime       *string         `json:"manualTime,omitempty"`
}
