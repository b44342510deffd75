package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MediaKind discriminates the two shapes a favorite can take.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

// ParseMediaKind accepts "movie" and "tv" (plus the "series"/"show" aliases).
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaKindMovie, nil
	case "tv", "series", "show", "shows":
		return MediaKindTV, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// FavoriteEntry is one favorited title. Name holds the movie title or the show
// name and Date holds the release date or first air date, depending on Kind.
type FavoriteEntry struct {
	ID         int64
	Kind       MediaKind
	Name       string
	PosterPath *string
	Date       *string
	ManualTime *string
}

// IsMovie reports whether the entry is a movie.
func (f FavoriteEntry) IsMovie() bool { return f.Kind == MediaKindMovie }

// IsShow reports whether the entry is a TV show.
func (f FavoriteEntry) IsShow() bool { return f.Kind == MediaKindTV }

// favoriteEntryJSON is the persisted shape. The catalog's field names are kept so
// documents written by earlier clients still decode.
type favoriteEntryJSON struct {
	ID           int64     `json:"id"`
	MediaType    MediaKind `json:"media_type,omitempty"`
	Title        *string   `json:"title,omitempty"`
	Name         *string   `json:"name,omitempty"`
	PosterPath   *string   `json:"poster_path"`
	ReleaseDate  *string   `json:"release_date,omitempty"`
	FirstAirDate *string   `json:"first_air_date,omitempty"`
	ManualTime   *string   `json:"manual_time"`
}

// MarshalJSON writes title/release_date for movies and name/first_air_date for shows.
func (f FavoriteEntry) MarshalJSON() ([]byte, error) {
	out := favoriteEntryJSON{
		ID:         f.ID,
		MediaType:  f.Kind,
		PosterPath: f.PosterPath,
		ManualTime: f.ManualTime,
	}
	name := f.Name
	if f.Kind == MediaKindMovie {
		out.Title = &name
		out.ReleaseDate = f.Date
	} else {
		out.Name = &name
		out.FirstAirDate = f.Date
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a persisted entry. Entries written without media_type
// are classified by the presence of a title.
func (f *FavoriteEntry) UnmarshalJSON(data []byte) error {
	var in favoriteEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind := in.MediaType
	if kind == "" {
		if in.Title != nil {
			kind = MediaKindMovie
		} else {
			kind = MediaKindTV
		}
	}
	*f = FavoriteEntry{
		ID:         in.ID,
		Kind:       kind,
		PosterPath: in.PosterPath,
		ManualTime: in.ManualTime,
	}
	if kind == MediaKindMovie {
		f.Name = derefString(in.Title)
		f.Date = in.ReleaseDate
	} else {
		f.Name = derefString(in.Name)
		f.Date = in.FirstAirDate
	}
	return nil
}

// FavoriteFromCatalog builds a favorite from a catalog search/discover result.
func FavoriteFromCatalog(item CatalogItem) FavoriteEntry {
	entry := FavoriteEntry{
		ID:         item.ID,
		Kind:       item.Kind(),
		Name:       item.DisplayName(),
		PosterPath: StringPtrOrNil(item.PosterPath),
	}
	if entry.Kind == MediaKindMovie {
		entry.Date = StringPtrOrNil(item.ReleaseDate)
	} else {
		entry.Date = StringPtrOrNil(item.FirstAirDate)
	}
	return entry
}

// StringPtrOrNil returns nil for blank strings.
func StringPtrOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
