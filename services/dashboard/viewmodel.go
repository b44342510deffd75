package dashboard

import (
	"time"

	"marquee/models"
	"marquee/services/schedule"
)

// Section is one independently loaded part of a view. Error is set instead of
// Data when the section could not be loaded.
type Section[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

func withData[T any](data T) *Section[T] { return &Section[T]{Data: data} }

func withError[T any](msg string) *Section[T] { return &Section[T]{Error: msg} }

// ViewRequest selects a view and its parameters. Location sets what
// "today" means; nil uses the server's zone.
type ViewRequest struct {
	View     ViewState
	Query    string
	Year     int
	Month    int
	Location *time.Location
}

// ViewModel is everything a view renders. Only the sections in the view's
// plan are set.
type ViewModel struct {
	View   ViewState          `json:"view"`
	Header models.ThemeHeader `json:"header"`

	Trending        *Section[[]models.CatalogItem]    `json:"trending,omitempty"`
	UpcomingMovies  *Section[[]models.CatalogItem]    `json:"upcomingMovies,omitempty"`
	Upcoming        *Section[[]models.ScheduleItem]   `json:"upcoming,omitempty"`
	ScheduleFilter  models.ScheduleFilter             `json:"scheduleFilter,omitempty"`
	Spotlight       *Section[models.Spotlight]        `json:"spotlight,omitempty"`
	Recommendations *Section[[]models.Recommendation] `json:"recommendations,omitempty"`

	FavoriteMovies []models.FavoriteEntry `json:"favoriteMovies,omitempty"`
	FavoriteShows  []models.FavoriteEntry `json:"favoriteShows,omitempty"`

	Agenda   *Section[[]models.ScheduleItem] `json:"agenda,omitempty"`
	Calendar *models.CalendarMonth           `json:"calendar,omitempty"`
	Status   *schedule.Status                `json:"scheduleStatus,omitempty"`

	Query   string                         `json:"query,omitempty"`
	Results *Section[[]models.CatalogItem] `json:"results,omitempty"`
}
