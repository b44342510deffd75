package models

// NetworkRef is where a show can be watched: a subscribed streaming provider
// or, failing that, its broadcast network.
type NetworkRef struct {
	Name     string  `json:"name"`
	LogoPath *string `json:"logoPath"`
}

// ScheduledEpisode is one episode of a favorited show with a known air date.
type ScheduledEpisode struct {
	ShowID         int64       `json:"showId"`
	ShowName       string      `json:"showName"`
	PosterPath     *string     `json:"posterPath"`
	SeasonNumber   int         `json:"seasonNumber"`
	EpisodeNumber  int         `json:"episodeNumber"`
	EpisodeName    string      `json:"episodeName"`
	AirDate        string      `json:"airDate"` // YYYY-MM-DD
	DisplayNetwork *NetworkRef `json:"displayNetwork"`
}

// EpisodeRef identifies one episode inside a grouped schedule item.
type EpisodeRef struct {
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	EpisodeName   string `json:"episodeName"`
}

// ScheduleItem groups every episode of one show airing on one date.
type ScheduleItem struct {
	ShowID         int64        `json:"showId"`
	ShowName       string       `json:"showName"`
	PosterPath     *string      `json:"posterPath"`
	PosterURL      string       `json:"posterUrl"`
	AirDate        string       `json:"airDate"`
	ManualTime     *string      `json:"manualTime,omitempty"`
	SortMinute     int          `json:"sortMinute"`
	DisplayNetwork *NetworkRef  `json:"displayNetwork"`
	Episodes       []EpisodeRef `json:"episodes"`
	Label          string       `json:"label"`
	Past           bool         `json:"past,omitempty"`
}

// CalendarDay lists the shows with at least one episode on a date.
type CalendarDay struct {
	Date  string   `json:"date"`
	Day   int      `json:"day"`
	Shows []string `json:"shows"`
}

// CalendarMonth is the calendar projection for one displayed month.
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// SpotlightItem is a favorite with a release or air date near today.
type SpotlightItem struct {
	Kind       MediaKind `json:"kind"`
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	PosterPath *string   `json:"posterPath"`
	PosterURL  string    `json:"posterUrl"`
	Date       string    `json:"date"`
	Label      string    `json:"label,omitempty"`
}

// Spotlight is the highlight rail plus the index the client scrolls to.
// FocusIndex is -1 when Items is empty.
type Spotlight struct {
	Items      []SpotlightItem `json:"items"`
	FocusIndex int             `json:"focusIndex"`
}

// ScheduleResponse is the API response for the agenda and digest endpoints.
type ScheduleResponse struct {
	Items       []ScheduleItem `json:"items"`
	Total       int            `json:"total"`
	Filter      string         `json:"filter,omitempty"`
	Error       string         `json:"error,omitempty"`
	RefreshedAt string         `json:"refreshedAt,omitempty"`
}
