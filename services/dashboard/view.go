package dashboard

import (
	"fmt"
	"strings"
)

// ViewState is the screen the user is looking at.
type ViewState string

const (
	ViewDashboard     ViewState = "dashboard"
	ViewFavorites     ViewState = "favorites"
	ViewSchedule      ViewState = "schedule"
	ViewSearchResults ViewState = "search"
)

// ParseView validates a view name.
func ParseView(s string) (ViewState, error) {
	switch v := ViewState(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewDashboard, ViewFavorites, ViewSchedule, ViewSearchResults:
		return v, nil
	case "searchresults", "search-results":
		return ViewSearchResults, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Fetch is one unit of work a view needs before it can render.
type Fetch string

const (
	FetchTrending        Fetch = "trending"
	FetchUpcomingMovies  Fetch = "upcoming_movies"
	FetchSchedule        Fetch = "schedule"
	FetchRecommendations Fetch = "recommendations"
	FetchFavorites       Fetch = "favorites"
	FetchSearch          Fetch = "search"
)

var plans = map[ViewState][]Fetch{
	ViewDashboard:     {FetchTrending, FetchUpcomingMovies, FetchSchedule, FetchRecommendations},
	ViewFavorites:     {FetchFavorites},
	ViewSchedule:      {FetchSchedule},
	ViewSearchResults: {FetchSearch},
}

// PlanFor returns the fetches needed to render view.
func PlanFor(view ViewState) []Fetch {
	plan := plans[view]
	out := make([]Fetch, len(plan))
	copy(out, plan)
	return out
}

func planIncludes(plan []Fetch, f Fetch) bool {
	for _, p := range plan {
		if p == f {
			return true
		}
	}
	return false
}
