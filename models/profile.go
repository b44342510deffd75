package models

import (
	"fmt"
	"strings"
)

// Theme is the visual theme a user picked.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeHorror  Theme = "horror"
	ThemeSciFi   Theme = "scifi"
	ThemeClean   Theme = "clean"
)

// ThemeHeader is the header copy shown for a theme.
type ThemeHeader struct {
	Theme    Theme  `json:"theme"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

var themeHeaders = []ThemeHeader{
	{ThemeDefault, "Entertainment Hub", "Find where to watch your favorite shows and movies."},
	{ThemeHorror, "The Overlook", "All play and no work makes for a great watchlist."},
	{ThemeSciFi, "Game Over, Man!", "Find your next great watch before it's too late."},
	{ThemeClean, "There Will Be Shows", "Find the next series you can really sink your teeth into."},
}

// ThemeHeaders returns the header copy for every theme.
func ThemeHeaders() []ThemeHeader {
	out := make([]ThemeHeader, len(themeHeaders))
	copy(out, themeHeaders)
	return out
}

// Header returns the header copy for t, falling back to the default theme.
func (t Theme) Header() ThemeHeader {
	for _, h := range themeHeaders {
		if h.Theme == t {
			return h
		}
	}
	return themeHeaders[0]
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ThemeDefault, ThemeHorror, ThemeSciFi, ThemeClean:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// ScheduleFilter selects the window of the dashboard's upcoming digest.
type ScheduleFilter string

const (
	FilterToday ScheduleFilter = "today"
	FilterWeek  ScheduleFilter = "week"
	FilterMonth ScheduleFilter = "month"
)

// ParseScheduleFilter validates a digest filter.
func ParseScheduleFilter(s string) (ScheduleFilter, error) {
	f := ScheduleFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterToday, FilterWeek, FilterMonth:
		return f, nil
	}
	return "", fmt.Errorf("unknown schedule filter %q", s)
}

// UserProfile is the persisted per-user document. It is always written whole.
type UserProfile struct {
	UserName                *string         `json:"userName"`
	Subscriptions           SubscriptionSet `json:"subscriptions"`
	Favorites               []FavoriteEntry `json:"favorites"`
	Theme                   Theme           `json:"theme"`
	DashboardScheduleFilter ScheduleFilter  `json:"dashboardScheduleFilter"`
}

// DefaultUserProfile is written when a signed-in user has no document yet.
func DefaultUserProfile() UserProfile {
	return UserProfile{
		Subscriptions:           SubscriptionSet{},
		Favorites:               []FavoriteEntry{},
		Theme:                   ThemeDefault,
		DashboardScheduleFilter: FilterToday,
	}
}

// Normalize fills empty fields the way a freshly loaded document is read.
func (p UserProfile) Normalize() UserProfile {
	if p.Subscriptions == nil {
		p.Subscriptions = SubscriptionSet{}
	}
	p.Favorites = uniqueFavorites(p.Favorites)
	if _, err := ParseTheme(string(p.Theme)); err != nil {
		p.Theme = ThemeDefault
	}
	if _, err := ParseScheduleFilter(string(p.DashboardScheduleFilter)); err != nil {
		p.DashboardScheduleFilter = FilterToday
	}
	return p
}

// uniqueFavorites drops repeated ids, keeping the first occurrence. A nil
// input yields an empty slice.
func uniqueFavorites(favs []FavoriteEntry) []FavoriteEntry {
	seen := make(map[int64]struct{}, len(favs))
	out := make([]FavoriteEntry, 0, len(favs))
	for _, f := range favs {
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Clone returns a deep copy so callers can hand out profiles without sharing slices.
func (p UserProfile) Clone() UserProfile {
	out := p
	if p.UserName != nil {
		name := *p.UserName
		out.UserName = &name
	}
	out.Subscriptions = append(SubscriptionSet{}, p.Subscriptions...)
	out.Favorites = make([]FavoriteEntry, len(p.Favorites))
	copy(out.Favorites, p.Favorites)
	return out
}

// ProfileSnapshot is one version of a user's document as seen on the push stream.
type ProfileSnapshot struct {
	UserID       string      `json:"userId"`
	Profile      UserProfile `json:"profile"`
	Version      int64       `json:"version"`
	WriterID     string      `json:"writerId,omitempty"`
	LocalVersion int64       `json:"localVersion,omitempty"`
}
