package models

// Recommendation is a catalog title similar to the user's favorites.
type Recommendation struct {
	Kind        MediaKind `json:"kind"`
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"posterPath"`
	Date        string    `json:"date,omitempty"`
	Popularity  float64   `json:"popularity"`
	VoteAverage float64   `json:"voteAverage,omitempty"`
}
