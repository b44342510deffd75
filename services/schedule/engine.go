// Package schedule builds a user's episode schedule from their favorited
// shows and projects it into the agenda, digest, calendar and spotlight views.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"marquee/internal/metrics"
	"marquee/models"
	"marquee/services/catalog"
)

const dateLayout = "2006-01-02"

// ErrRefreshFailed wraps the first fetch error of a failed refresh.
var ErrRefreshFailed = errors.New("schedule refresh failed")

// State is the engine's refresh state.
type State string

const (
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
)

// Status mirrors what the status endpoint reports.
type Status struct {
	State         State     `json:"state"`
	LastRefreshAt time.Time `json:"lastRefreshAt"`
	LastRefreshMs int64     `json:"lastRefreshMs"`
	ShowsTracked  int       `json:"showsTracked"`
	TotalEpisodes int       `json:"totalEpisodes"`
	Generation    uint64    `json:"generation"`
	LastError     string    `json:"lastError,omitempty"`
}

// Options tunes an Engine. Zero values pick defaults.
type Options struct {
	Region        string
	Concurrency   int
	SpotlightDays int
	Now           func() time.Time
}

// Engine holds one user's schedule. Refreshes may overlap; the result of the
// most recently started refresh is the one kept.
type Engine struct {
	fetcher       catalog.Fetcher
	region        string
	concurrency   int
	spotlightDays int
	now           func() time.Time

	generation atomic.Uint64
	inflight   atomic.Int32

	mu            sync.RWMutex
	committed     uint64
	episodes      []models.ScheduledEpisode
	manual        map[int64]*string
	order         map[int64]int
	showsTracked  int
	lastErr       error
	lastRefreshAt time.Time
	lastRefreshMs int64
}

// NewEngine creates an engine reading the catalog through fetcher.
func NewEngine(fetcher catalog.Fetcher, opts Options) *Engine {
	if opts.Region == "" {
		opts.Region = "US"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 6
	}
	if opts.SpotlightDays <= 0 {
		opts.SpotlightDays = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		fetcher:       fetcher,
		region:        strings.ToUpper(opts.Region),
		concurrency:   opts.Concurrency,
		spotlightDays: opts.SpotlightDays,
		now:           opts.Now,
		manual:        map[int64]*string{},
		order:         map[int64]int{},
	}
}

// State reports whether a refresh is in flight.
func (e *Engine) State() State {
	if e.inflight.Load() > 0 {
		return StateRefreshing
	}
	return StateStale
}

// Status returns the engine's current state and last refresh outcome.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Status{
		State:         e.State(),
		LastRefreshAt: e.lastRefreshAt,
		LastRefreshMs: e.lastRefreshMs,
		ShowsTracked:  e.showsTracked,
		TotalEpisodes: len(e.episodes),
		Generation:    e.committed,
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

// Err returns the error of the last committed refresh, if it failed.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// Episodes returns a copy of the committed schedule.
func (e *Engine) Episodes() []models.ScheduledEpisode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.ScheduledEpisode, len(e.episodes))
	copy(out, e.episodes)
	return out
}

// SetManualTimes updates the per-show air times used to order same-day items
// without refetching anything.
func (e *Engine) SetManualTimes(shows []models.FavoriteEntry) {
	manual, order := indexShows(shows)
	e.mu.Lock()
	e.manual = manual
	e.order = order
	e.mu.Unlock()
}

// Refresh rebuilds the schedule for shows. Any fetch error clears the
// schedule and is returned. A refresh that finishes after a newer one
// started is discarded.
func (e *Engine) Refresh(ctx context.Context, shows []models.FavoriteEntry, subs models.SubscriptionSet) error {
	gen := e.generation.Add(1)
	e.inflight.Add(1)
	defer e.inflight.Add(-1)

	start := time.Now()
	// Season selection dates "today" in the clock's own zone. One schedule
	// serves requests from every tz, so no request zone applies here.
	today := e.now().Format(dateLayout)
	tracked := make([]models.FavoriteEntry, 0, len(shows))
	for _, s := range shows {
		if s.IsShow() {
			tracked = append(tracked, s)
		}
	}

	episodes, err := e.collect(ctx, tracked, subs, today)
	elapsed := time.Since(start)
	metrics.ScheduleRefreshDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.ScheduleRefreshFailures.Inc()
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	manual, order := indexShows(tracked)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen <= e.committed {
		log.Printf("[schedule] discarding refresh gen=%d (committed=%d)", gen, e.committed)
		return err
	}
	e.committed = gen
	e.manual = manual
	e.order = order
	e.showsTracked = len(tracked)
	e.lastRefreshAt = e.now()
	e.lastRefreshMs = elapsed.Milliseconds()
	if err != nil {
		log.Printf("[schedule] refresh gen=%d failed, schedule cleared: %v", gen, err)
		e.episodes = nil
		e.lastErr = err
		return err
	}
	e.episodes = episodes
	e.lastErr = nil
	log.Printf("[schedule] refresh gen=%d: %d shows, %d episodes in %dms", gen, len(tracked), len(episodes), e.lastRefreshMs)
	return nil
}

type showResult struct {
	index    int
	episodes []models.ScheduledEpisode
}

func (e *Engine) collect(ctx context.Context, shows []models.FavoriteEntry, subs models.SubscriptionSet, today string) ([]models.ScheduledEpisode, error) {
	if len(shows) == 0 {
		return []models.ScheduledEpisode{}, nil
	}

	p := pool.NewWithResults[showResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(e.concurrency)
	for i, show := range shows {
		p.Go(func(ctx context.Context) (showResult, error) {
			eps, err := e.fetchShow(ctx, show, subs, today)
			return showResult{index: i, episodes: eps}, err
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	// Results arrive in completion order.
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	var out []models.ScheduledEpisode
	for _, r := range results {
		out = append(out, r.episodes...)
	}
	if out == nil {
		out = []models.ScheduledEpisode{}
	}
	return out, nil
}

func (e *Engine) fetchShow(ctx context.Context, show models.FavoriteEntry, subs models.SubscriptionSet, today string) ([]models.ScheduledEpisode, error) {
	var details models.ShowDetails
	endpoint := catalog.Endpoint(fmt.Sprintf("tv/%d", show.ID), url.Values{"append_to_response": {"watch/providers"}})
	if err := e.fetcher.Fetch(ctx, endpoint, &details); err != nil {
		return nil, fmt.Errorf("show %d: %w", show.ID, err)
	}

	season, ok := SelectSeason(details.Seasons, today)
	if !ok {
		return nil, nil
	}

	var sd models.SeasonDetails
	if err := e.fetcher.Fetch(ctx, fmt.Sprintf("tv/%d/season/%d", show.ID, season.SeasonNumber), &sd); err != nil {
		return nil, fmt.Errorf("show %d season %d: %w", show.ID, season.SeasonNumber, err)
	}

	network := DisplayNetwork(details, e.region, subs)
	name := show.Name
	if name == "" {
		name = details.Name
	}
	poster := show.PosterPath
	if poster == nil {
		poster = models.StringPtrOrNil(details.PosterPath)
	}

	return flatten(show.ID, name, poster, season.SeasonNumber, sd.Episodes, network), nil
}

// flatten turns a season's episodes into scheduled episodes, dropping those
// without a usable air date.
func flatten(showID int64, name string, poster *string, seasonNumber int, episodes []models.CatalogEpisode, network *models.NetworkRef) []models.ScheduledEpisode {
	out := make([]models.ScheduledEpisode, 0, len(episodes))
	for _, ep := range episodes {
		air := strings.TrimSpace(ep.AirDate)
		if !validDate(air) {
			continue
		}
		sn := ep.SeasonNumber
		if sn == 0 {
			sn = seasonNumber
		}
		out = append(out, models.ScheduledEpisode{
			ShowID:         showID,
			ShowName:       name,
			PosterPath:     poster,
			SeasonNumber:   sn,
			EpisodeNumber:  ep.EpisodeNumber,
			EpisodeName:    ep.Name,
			AirDate:        air,
			DisplayNetwork: network,
		})
	}
	return out
}

func indexShows(shows []models.FavoriteEntry) (map[int64]*string, map[int64]int) {
	manual := make(map[int64]*string, len(shows))
	order := make(map[int64]int, len(shows))
	for i, s := range shows {
		manual[s.ID] = s.ManualTime
		if _, seen := order[s.ID]; !seen {
			order[s.ID] = i
		}
	}
	return manual, order
}

func validDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
