// Package dashboard owns the per-user application state and maps each view
// to the data it needs.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/singleflight"

	"marquee/models"
	"marquee/services/catalog"
	"marquee/services/favorites"
	"marquee/services/profile"
	"marquee/services/recommendations"
	"marquee/services/schedule"
	"marquee/utils"
)

var ErrEmptyQuery = errors.New("search query is empty")

// ProfileStore is the persistence the App reads, writes and listens to.
type ProfileStore interface {
	profile.Backend
	Subscribe(userID string) (<-chan models.ProfileSnapshot, func())
}

// Options configures every App a Manager creates.
type Options struct {
	Region              string
	ScheduleConcurrency int
	SpotlightDays       int
	RefreshTimeout      time.Duration
	Now                 func() time.Time
}

// App is the state of one signed-in user: their profile session, working
// copy of the profile, schedule and recommendations.
type App struct {
	userID   string
	fetcher  catalog.Fetcher
	session  *profile.Session
	registry *favorites.Registry
	schedule *schedule.Engine
	recs     *recommendations.Engine
	region   string
	now      func() time.Time
	timeout  time.Duration

	// scheduleDirty is set when favorites or subscriptions changed since the
	// last schedule refresh.
	scheduleDirty atomic.Bool
	// refreshes coalesces concurrent schedule refreshes into one; inflight
	// counts callers inside it and is raised before scheduleDirty is cleared.
	refreshes singleflight.Group
	inflight  atomic.Int32

	mu     sync.Mutex
	active ViewState

	cancelSub func()
	wg        conc.WaitGroup
}

// NewApp wires the services for userID. Call Start before use.
func NewApp(userID string, store ProfileStore, fetcher catalog.Fetcher, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = time.Minute
	}
	session := profile.NewSession(userID, store)
	a := &App{
		userID:   userID,
		fetcher:  fetcher,
		session:  session,
		registry: favorites.NewRegistry(session),
		schedule: schedule.NewEngine(fetcher, schedule.Options{
			Region:        opts.Region,
			Concurrency:   opts.ScheduleConcurrency,
			SpotlightDays: opts.SpotlightDays,
			Now:           opts.Now,
		}),
		recs:    recommendations.NewEngine(fetcher, opts.ScheduleConcurrency),
		region:  strings.ToUpper(opts.Region),
		now:     opts.Now,
		timeout: opts.RefreshTimeout,
		active:  ViewDashboard,
	}
	a.scheduleDirty.Store(true)
	return a
}

// Start subscribes to the user's document and performs the first load.
func (a *App) Start(ctx context.Context, store ProfileStore) error {
	snaps, cancel := store.Subscribe(a.userID)
	a.cancelSub = cancel

	p, first, err := a.session.Load(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("load profile %s: %w", a.userID, err)
	}
	if first {
		a.registry.Replace(p)
		a.schedule.SetManualTimes(a.registry.Shows())
		log.Printf("[dashboard] user=%s loaded: %d favorites, %d subscriptions", a.userID, len(p.Favorites), len(p.Subscriptions))
	}

	a.wg.Go(func() {
		for snap := range snaps {
			a.HandleSnapshot(context.Background(), snap)
		}
	})
	return nil
}

// Close stops listening for snapshots and waits for pending writes.
func (a *App) Close() {
	if a.cancelSub != nil {
		a.cancelSub()
	}
	a.wg.Wait()
	a.session.Wait()
}

// HandleSnapshot applies a document pushed by the store. Echoes of this
// App's own writes and stale versions are ignored. It reports whether the
// snapshot was applied.
func (a *App) HandleSnapshot(ctx context.Context, snap models.ProfileSnapshot) bool {
	if !a.session.Accept(snap) {
		return false
	}
	a.registry.Replace(snap.Profile)
	a.schedule.SetManualTimes(a.registry.Shows())
	a.scheduleDirty.Store(true)
	log.Printf("[dashboard] user=%s applied external profile version %d", a.userID, snap.Version)

	switch a.ActiveView() {
	case ViewDashboard, ViewSchedule:
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		_ = a.RefreshSchedule(ctx)
	}
	return true
}

func (a *App) UserID() string { return a.userID }
func (a *App) Registry() *favorites.Registry { return a.registry }
func (a *App) Schedule() *schedule.Engine { return a.schedule }
func (a *App) Session() *profile.Session { return a.session }
func (a *App) Now() time.Time { return a.now() }

// ActiveView returns the last activated view.
func (a *App) ActiveView() ViewState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// ToggleFavorite adds or removes a favorite and marks the schedule for refresh.
func (a *App) ToggleFavorite(item models.CatalogItem) bool {
	added := a.registry.ToggleFavorite(item)
	a.favoritesChanged()
	return added
}

// ToggleSubscription flips a provider subscription. Display networks depend
// on it, so the schedule is marked for refresh.
func (a *App) ToggleSubscription(serviceID int) {
	a.registry.ToggleSubscription(serviceID)
	a.scheduleDirty.Store(true)
}

// SetManualTime updates a favorite's air time. Ordering changes immediately
// without refetching the schedule.
func (a *App) SetManualTime(entryID int64, text string) error {
	if err := a.registry.SetManualTime(entryID, text); err != nil {
		return err
	}
	a.schedule.SetManualTimes(a.registry.Shows())
	return nil
}

// Overwrite replaces the whole profile, as a PUT of the document does.
func (a *App) Overwrite(p models.UserProfile) {
	a.registry.Overwrite(p)
	a.favoritesChanged()
}

func (a *App) RemoveKind(kind models.MediaKind) int {
	n := a.registry.RemoveKind(kind)
	a.favoritesChanged()
	return n
}

func (a *App) RemoveIDs(ids []int64) int {
	n := a.registry.RemoveIDs(ids)
	a.favoritesChanged()
	return n
}

func (a *App) favoritesChanged() {
	a.schedule.SetManualTimes(a.registry.Shows())
	a.scheduleDirty.Store(true)
}

// RefreshSchedule rebuilds the schedule from the current favorites. A call
// made while a refresh is running waits for it and shares its result.
func (a *App) RefreshSchedule(ctx context.Context) error {
	_, err, _ := a.refreshes.Do("schedule", func() (any, error) {
		a.inflight.Add(1)
		defer a.inflight.Add(-1)
		a.scheduleDirty.Store(false)

		// Shared by every joined caller, so it outlives the one that started it.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		err := a.schedule.Refresh(rctx, a.registry.Shows(), a.registry.Subscriptions())
		if err != nil {
			// Retry on the next view that needs the schedule.
			a.scheduleDirty.Store(true)
		}
		return nil, err
	})
	return err
}

// EnsureSchedule refreshes the schedule only when something changed since
// the last refresh, or waits for the refresh already running. A change made
// during that refresh triggers one more.
func (a *App) EnsureSchedule(ctx context.Context) error {
	for attempt := 0; attempt < 2; attempt++ {
		if !a.scheduleDirty.Load() && a.inflight.Load() == 0 {
			return a.schedule.Err()
		}
		if err := a.RefreshSchedule(ctx); err != nil {
			return err
		}
	}
	return a.schedule.Err()
}

// Recommendations returns titles similar to the user's favorites.
func (a *App) Recommendations(ctx context.Context) ([]models.Recommendation, error) {
	return a.recs.Recommend(ctx, a.registry.Favorites())
}

// Search runs a multi search, dropping people.
func (a *App) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	var page models.CatalogPage
	if err := a.fetcher.Fetch(ctx, catalog.Endpoint("search/multi", url.Values{"query": {query}}), &page); err != nil {
		return nil, err
	}
	out := make([]models.CatalogItem, 0, len(page.Results))
	for _, it := range page.Results {
		if it.MediaType == "person" {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (a *App) list(ctx context.Context, endpoint string) ([]models.CatalogItem, error) {
	var page models.CatalogPage
	if err := a.fetcher.Fetch(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []models.CatalogItem{}, nil
	}
	return page.Results, nil
}

// Activate switches to req.View, runs its fetch plan and builds the view
// model. A failed fetch only degrades its own section.
func (a *App) Activate(ctx context.Context, req ViewRequest) (ViewModel, error) {
	plan := PlanFor(req.View)
	if len(plan) == 0 {
		return ViewModel{}, fmt.Errorf("unknown view %q", req.View)
	}
	a.mu.Lock()
	a.active = req.View
	a.mu.Unlock()

	p := a.registry.Profile()
	now := a.now()
	if req.Location != nil {
		now = now.In(req.Location)
	}
	vm := ViewModel{View: req.View, Header: p.Theme.Header()}

	var wg conc.WaitGroup
	if planIncludes(plan, FetchTrending) {
		wg.Go(func() {
			items, err := a.list(ctx, "trending/all/day")
			vm.Trending = sectionOf(items, err)
		})
	}
	if planIncludes(plan, FetchUpcomingMovies) {
		wg.Go(func() {
			items, err := a.list(ctx, "movie/upcoming")
			vm.UpcomingMovies = sectionOf(items, err)
		})
	}
	if planIncludes(plan, FetchRecommendations) {
		wg.Go(func() {
			recs, err := a.Recommendations(ctx)
			// Hidden rather than failed when there is nothing to show.
			if err == nil && len(recs) > 0 {
				vm.Recommendations = withData(recs)
			}
		})
	}
	if planIncludes(plan, FetchSearch) {
		wg.Go(func() {
			vm.Query = strings.TrimSpace(req.Query)
			items, err := a.Search(ctx, req.Query)
			if errors.Is(err, ErrEmptyQuery) {
				vm.Results = withData([]models.CatalogItem{})
				return
			}
			vm.Results = sectionOf(items, err)
		})
	}
	var scheduleErr error
	if planIncludes(plan, FetchSchedule) {
		wg.Go(func() {
			scheduleErr = a.EnsureSchedule(ctx)
		})
	}
	wg.Wait()

	if planIncludes(plan, FetchFavorites) {
		vm.FavoriteMovies = a.registry.Sorted(models.MediaKindMovie)
		vm.FavoriteShows = a.registry.Sorted(models.MediaKindTV)
	}

	if planIncludes(plan, FetchSchedule) {
		switch req.View {
		case ViewDashboard:
			vm.ScheduleFilter = p.DashboardScheduleFilter
			if scheduleErr != nil {
				vm.Upcoming = withError[[]models.ScheduleItem](catalog.UserMessage(scheduleErr))
			} else {
				vm.Upcoming = withData(a.schedule.Upcoming(p.DashboardScheduleFilter, now))
			}
			if spot := a.schedule.Spotlight(a.registry.Movies(), now); len(spot.Items) > 0 {
				vm.Spotlight = withData(spot)
			}
		case ViewSchedule:
			if scheduleErr != nil {
				vm.Agenda = withError[[]models.ScheduleItem](catalog.UserMessage(scheduleErr))
			} else {
				vm.Agenda = withData(a.schedule.Agenda(now))
			}
			year, month := req.Year, req.Month
			if year == 0 || month < 1 || month > 12 {
				year, month = now.Year(), int(now.Month())
			}
			cal := a.schedule.Calendar(year, time.Month(month))
			vm.Calendar = &cal
			st := a.schedule.Status()
			vm.Status = &st
		}
	}
	return vm, nil
}

func sectionOf[T any](data T, err error) *Section[T] {
	if err != nil {
		return withError[T](catalog.UserMessage(err))
	}
	return withData(data)
}

// Details loads a title with its providers and cast, marking the providers
// the user subscribes to.
func (a *App) Details(ctx context.Context, kind models.MediaKind, id int64) (models.TitleView, error) {
	var d models.TitleDetailsFull
	endpoint := catalog.Endpoint(fmt.Sprintf("%s/%d", kind, id), url.Values{"append_to_response": {"watch/providers,credits"}})
	if err := a.fetcher.Fetch(ctx, endpoint, &d); err != nil {
		return models.TitleView{}, err
	}
	d.MediaType = string(kind)

	view := models.TitleView{
		Kind:             kind,
		ID:               id,
		Title:            d.DisplayName(),
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		PosterPath:       d.PosterPath,
		PosterURL:        utils.ImageURL(d.PosterPath, utils.ImageSizePoster),
		BackdropPath:     d.BackdropPath,
		Status:           d.Status,
		Runtime:          d.Runtime,
		NumberOfSeasons:  d.NumberOfSeasons,
		NumberOfEpisodes: d.NumberOfEpisodes,
		VoteAverage:      d.VoteAverage,
		Genres:           []string{},
		Providers:        []models.ProviderOffer{},
		Cast:             []models.Credit{},
	}
	if kind == models.MediaKindMovie {
		view.Date = d.ReleaseDate
	} else {
		view.Date = d.FirstAirDate
	}
	for _, g := range d.Genres {
		view.Genres = append(view.Genres, g.Name)
	}
	subs := a.registry.Subscriptions()
	for _, p := range d.WatchProviders.Results[a.region].Flatrate {
		view.Providers = append(view.Providers, models.ProviderOffer{
			ID:         p.ProviderID,
			Name:       p.ProviderName,
			LogoPath:   p.LogoPath,
			LogoURL:    utils.ImageURL(p.LogoPath, utils.ImageSizeLogo),
			Subscribed: subs.Contains(p.ProviderID),
		})
	}
	cast := d.Credits.Cast
	if len(cast) > 10 {
		cast = cast[:10]
	}
	view.Cast = append(view.Cast, cast...)
	for _, f := range a.registry.Favorites() {
		if f.ID == id && f.Kind == kind {
			view.IsFavorite = true
			view.ManualTime = f.ManualTime
			break
		}
	}
	return view, nil
}
