// Package recommendations suggests catalog titles based on the genres and
// keywords that recur across a user's favorites.
package recommendations

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"marquee/models"
	"marquee/services/catalog"
)

const (
	// MinFavorites is the smallest favorites set that produces recommendations.
	MinFavorites = 3
	topGenres    = 2
	topKeywords  = 5
	maxResults   = 20
)

// ErrUnavailable is returned when every discovery query failed.
var ErrUnavailable = errors.New("recommendations unavailable")

type Engine struct {
	fetcher     catalog.Fetcher
	concurrency int
}

// NewEngine creates an engine. concurrency bounds the detail fetches.
func NewEngine(fetcher catalog.Fetcher, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 6
	}
	return &Engine{fetcher: fetcher, concurrency: concurrency}
}

// Recommend returns up to 20 titles similar to favorites, most popular first.
// Fewer than MinFavorites favorites yields an empty result without any
// catalog request.
func (e *Engine) Recommend(ctx context.Context, favorites []models.FavoriteEntry) ([]models.Recommendation, error) {
	if len(favorites) < MinFavorites {
		return []models.Recommendation{}, nil
	}

	details := e.fetchDetails(ctx, favorites)
	genres := make(map[int]int)
	keywords := make(map[int]int)
	for _, d := range details {
		for _, g := range d.Genres {
			genres[g.ID]++
		}
		for _, k := range d.Keywords.All() {
			keywords[k.ID]++
		}
	}

	params := url.Values{"sort_by": {"popularity.desc"}}
	if ids := topIDs(genres, topGenres); len(ids) > 0 {
		params.Set("with_genres", joinIDs(ids))
	}
	if ids := topIDs(keywords, topKeywords); len(ids) > 0 {
		params.Set("with_keywords", joinIDs(ids))
	}

	kinds := []models.MediaKind{models.MediaKindMovie, models.MediaKindTV}
	pages := make([][]models.CatalogItem, len(kinds))
	errs := make([]error, len(kinds))
	p := pool.New().WithMaxGoroutines(len(kinds))
	for i, kind := range kinds {
		p.Go(func() {
			var page models.CatalogPage
			endpoint := catalog.Endpoint("discover/"+string(kind), params)
			if err := e.fetcher.Fetch(ctx, endpoint, &page); err != nil {
				log.Printf("[recommendations] discover %s failed: %v", kind, err)
				errs[i] = err
				return
			}
			for j := range page.Results {
				if page.Results[j].MediaType == "" {
					page.Results[j].MediaType = string(kind)
				}
			}
			pages[i] = page.Results
		})
	}
	p.Wait()

	if errs[0] != nil && errs[1] != nil {
		return []models.Recommendation{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
	}
	return merge(pages, favorites), nil
}

func (e *Engine) fetchDetails(ctx context.Context, favorites []models.FavoriteEntry) []models.TitleDetails {
	p := pool.NewWithResults[*models.TitleDetails]().WithContext(ctx).WithMaxGoroutines(e.concurrency)
	for _, fav := range favorites {
		p.Go(func(ctx context.Context) (*models.TitleDetails, error) {
			endpoint := catalog.Endpoint(fmt.Sprintf("%s/%d", fav.Kind, fav.ID), url.Values{"append_to_response": {"keywords"}})
			var d models.TitleDetails
			if err := e.fetcher.Fetch(ctx, endpoint, &d); err != nil {
				log.Printf("[recommendations] skipping %s %d: %v", fav.Kind, fav.ID, err)
				return nil, nil
			}
			return &d, nil
		})
	}
	results, _ := p.Wait()

	out := make([]models.TitleDetails, 0, len(results))
	for _, d := range results {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// topIDs returns the n most frequent ids; ties go to the smaller id.
func topIDs(counts map[int]int, n int) []int {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "|")
}

func merge(pages [][]models.CatalogItem, favorites []models.FavoriteEntry) []models.Recommendation {
	favored := make(map[int64]struct{}, len(favorites))
	for _, f := range favorites {
		favored[f.ID] = struct{}{}
	}

	seen := make(map[string]struct{})
	out := []models.Recommendation{}
	for _, page := range pages {
		for _, item := range page {
			if _, ok := favored[item.ID]; ok {
				continue
			}
			if strings.TrimSpace(item.PosterPath) == "" {
				continue
			}
			kind := item.Kind()
			key := fmt.Sprintf("%s:%d", kind, item.ID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			date := item.ReleaseDate
			if kind == models.MediaKindTV {
				date = item.FirstAirDate
			}
			out = append(out, models.Recommendation{
				Kind:        kind,
				ID:          item.ID,
				Title:       item.DisplayName(),
				PosterPath:  item.PosterPath,
				Date:        date,
				Popularity:  item.Popularity,
				VoteAverage: item.VoteAverage,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Popularity > out[j].Popularity })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
