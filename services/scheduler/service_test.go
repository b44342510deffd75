package scheduler

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/models"
	"marquee/services/catalog"
	"marquee/services/dashboard"
	"marquee/services/profile"
	"marquee/services/schedule"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingFetcher serves a single show and counts season fetches.
type countingFetcher struct {
	mu      sync.Mutex
	seasons int
}

func (f *countingFetcher) Fetch(_ context.Context, endpoint string, v any) error {
	var payload any
	switch endpoint {
	case "tv/7?append_to_response=watch%2Fproviders":
		payload = models.ShowDetails{ID: 7, Name: "Severance", Seasons: []models.SeasonSummary{{SeasonNumber: 2, AirDate: "2025-01-17"}}}
	case "tv/7/season/2":
		f.mu.Lock()
		f.seasons++
		f.mu.Unlock()
		payload = models.SeasonDetails{SeasonNumber: 2, Episodes: []models.CatalogEpisode{
			{ID: 1, Name: "Hello, Ms. Cobel", SeasonNumber: 2, EpisodeNumber: 1, AirDate: "2025-01-17"},
		}}
	default:
		return &catalog.FetchError{Endpoint: endpoint, StatusCode: 404}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (f *countingFetcher) seasonFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seasons
}

func setup(t *testing.T) (*dashboard.Manager, *countingFetcher, *clock) {
	t.Helper()
	store, err := profile.Open(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	clk := &clock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	f := &countingFetcher{}
	apps := dashboard.NewManager(store, f, dashboard.Options{Region: "US", Now: clk.Now})
	t.Cleanup(func() {
		apps.Close()
		store.Close()
	})
	return apps, f, clk
}

func TestSweepRefreshesStaleSchedules(t *testing.T) {
	apps, f, clk := setup(t)
	ctx := context.Background()

	app, err := apps.Get(ctx, "u1")
	require.NoError(t, err)
	app.ToggleFavorite(models.CatalogItem{ID: 7, Name: "Severance"})
	require.NoError(t, app.EnsureSchedule(ctx))
	require.Equal(t, 1, f.seasonFetches())

	svc := NewService(apps, Options{MaxAge: 6 * time.Hour, Now: clk.Now})

	clk.Advance(time.Hour)
	res := svc.Sweep(ctx)
	assert.Equal(t, 1, res.Checked)
	assert.Zero(t, res.Refreshed)
	assert.Equal(t, 1, f.seasonFetches())

	clk.Advance(6 * time.Hour)
	res = svc.Sweep(ctx)
	assert.Equal(t, 1, res.Refreshed)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 2, f.seasonFetches())
	assert.Equal(t, clk.Now(), app.Schedule().Status().LastRefreshAt)
	assert.Equal(t, res, svc.LastSweep())
}

func TestSweepLeavesUnbuiltSchedulesLazy(t *testing.T) {
	apps, f, clk := setup(t)
	ctx := context.Background()

	app, err := apps.Get(ctx, "u1")
	require.NoError(t, err)
	app.ToggleFavorite(models.CatalogItem{ID: 7, Name: "Severance"})

	svc := NewService(apps, Options{MaxAge: time.Minute, Now: clk.Now})
	clk.Advance(24 * time.Hour)
	res := svc.Sweep(ctx)

	assert.Zero(t, res.Refreshed)
	assert.Zero(t, f.seasonFetches())
}

func TestDue(t *testing.T) {
	svc := NewService(nil, Options{MaxAge: time.Hour})
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, svc.due(scheduleStatus(time.Time{}, false), now))
	assert.False(t, svc.due(scheduleStatus(now.Add(-30*time.Minute), false), now))
	assert.True(t, svc.due(scheduleStatus(now.Add(-time.Hour), false), now))
	assert.False(t, svc.due(scheduleStatus(now.Add(-2*time.Hour), true), now))
}

func TestClaimIsExclusive(t *testing.T) {
	svc := NewService(nil, Options{})
	assert.True(t, svc.claim("u1"))
	assert.False(t, svc.claim("u1"))
	assert.True(t, svc.claim("u2"))
	svc.release("u1")
	assert.True(t, svc.claim("u1"))
}

func TestStartStop(t *testing.T) {
	apps, _, _ := setup(t)
	svc := NewService(apps, Options{CheckInterval: 10 * time.Millisecond})

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
	require.NoError(t, svc.Stop(ctx))
}

func scheduleStatus(last time.Time, refreshing bool) schedule.Status {
	st := schedule.Status{State: schedule.StateStale, LastRefreshAt: last}
	if refreshing {
		st.State = schedule.StateRefreshing
	}
	return st
}
