package favorites

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/models"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []models.UserProfile
}

func (p *recordingPersister) Save(profile models.UserProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, profile)
}

func (p *recordingPersister) last() models.UserProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[len(p.saved)-1]
}

func movie(id int64, title string) models.CatalogItem {
	return models.CatalogItem{ID: id, Title: title, ReleaseDate: "2024-10-04", PosterPath: "/m.jpg"}
}

func show(id int64, name string) models.CatalogItem {
	return models.CatalogItem{ID: id, Name: name, FirstAirDate: "2022-02-18"}
}

func TestToggleFavoriteAddsThenRemoves(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	assert.True(t, r.ToggleFavorite(movie(1, "Alien")))
	require.Len(t, r.Favorites(), 1)
	assert.Equal(t, models.MediaKindMovie, r.Favorites()[0].Kind)

	assert.False(t, r.ToggleFavorite(movie(1, "Alien")))
	assert.Empty(t, r.Favorites())
	assert.Len(t, persist.saved, 2)
	assert.Empty(t, persist.last().Favorites)
}

func TestToggleFavoriteTwiceRestoresOriginal(t *testing.T) {
	r := NewRegistry(nil)
	r.ToggleFavorite(show(10, "Severance"))
	r.ToggleFavorite(movie(20, "Heat"))
	before := r.Favorites()

	r.ToggleFavorite(show(30, "Andor"))
	r.ToggleFavorite(show(30, "Andor"))

	assert.Equal(t, before, r.Favorites())
}

func TestToggleFavoriteResolvesKind(t *testing.T) {
	r := NewRegistry(nil)
	r.ToggleFavorite(models.CatalogItem{ID: 5, MediaType: "tv", Title: "Odd Title", Name: "Odd Show"})
	r.ToggleFavorite(show(6, "Severance"))
	r.ToggleFavorite(movie(7, "Heat"))

	shows := r.Shows()
	require.Len(t, shows, 2)
	assert.Equal(t, "Odd Show", shows[0].Name)
	require.NotNil(t, shows[1].Date)
	assert.Equal(t, "2022-02-18", *shows[1].Date)

	movies := r.Movies()
	require.Len(t, movies, 1)
	assert.Equal(t, int64(7), movies[0].ID)
}

func TestToggleSubscription(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	r.ToggleSubscription(8)
	r.ToggleSubscription(337)
	assert.True(t, r.IsSubscribed(8))
	assert.Equal(t, models.SubscriptionSet{8, 337}, r.Subscriptions())

	r.ToggleSubscription(8)
	assert.False(t, r.IsSubscribed(8))
	assert.Equal(t, models.SubscriptionSet{337}, persist.last().Subscriptions)
}

func TestSetManualTime(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)
	r.ToggleFavorite(show(10, "Severance"))

	require.NoError(t, r.SetManualTime(10, " 9pm "))
	fav := r.Favorites()[0]
	require.NotNil(t, fav.ManualTime)
	assert.Equal(t, "9pm", *fav.ManualTime)

	require.NoError(t, r.SetManualTime(10, ""))
	assert.Nil(t, r.Favorites()[0].ManualTime)

	saves := len(persist.saved)
	assert.ErrorIs(t, r.SetManualTime(99, "8pm"), ErrFavoriteNotFound)
	assert.Len(t, persist.saved, saves)
}

func TestSetManualTimeDoesNotAliasReturnedSlices(t *testing.T) {
	r := NewRegistry(nil)
	r.ToggleFavorite(show(10, "Severance"))
	held := r.Favorites()

	require.NoError(t, r.SetManualTime(10, "8pm"))
	assert.Nil(t, held[0].ManualTime)
}

func TestRemoveKindAndIDs(t *testing.T) {
	r := NewRegistry(nil)
	r.ToggleFavorite(movie(1, "Alien"))
	r.ToggleFavorite(movie(2, "Heat"))
	r.ToggleFavorite(show(3, "Severance"))
	r.ToggleFavorite(show(4, "Andor"))

	assert.Equal(t, 2, r.RemoveKind(models.MediaKindMovie))
	assert.Empty(t, r.Movies())
	assert.Len(t, r.Shows(), 2)

	assert.Equal(t, 1, r.RemoveIDs([]int64{4, 99}))
	require.Len(t, r.Favorites(), 1)
	assert.Equal(t, int64(3), r.Favorites()[0].ID)
}

func TestProfileSettings(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	r.SetUserName("  Ellen ")
	require.NoError(t, r.SetTheme("Horror"))
	require.NoError(t, r.SetScheduleFilter("week"))
	assert.Error(t, r.SetTheme("neon"))
	assert.Error(t, r.SetScheduleFilter("year"))

	p := r.Profile()
	require.NotNil(t, p.UserName)
	assert.Equal(t, "Ellen", *p.UserName)
	assert.Equal(t, models.ThemeHorror, p.Theme)
	assert.Equal(t, models.FilterWeek, p.DashboardScheduleFilter)
	assert.Len(t, persist.saved, 3)
}

func TestReplaceDoesNotPersist(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	p := models.DefaultUserProfile()
	p.Subscriptions = models.SubscriptionSet{15}
	r.Replace(p)

	assert.True(t, r.IsSubscribed(15))
	assert.Empty(t, persist.saved)
}

func TestSortedFoldsAccentsAndArticles(t *testing.T) {
	r := NewRegistry(nil)
	r.ToggleFavorite(movie(1, "Zodiac"))
	r.ToggleFavorite(movie(2, "Érase una vez"))
	r.ToggleFavorite(movie(3, "The Thing"))
	r.ToggleFavorite(movie(4, "amélie"))
	r.ToggleFavorite(show(5, "Andor"))

	var names []string
	for _, f := range r.Sorted(models.MediaKindMovie) {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"amélie", "Érase una vez", "The Thing", "Zodiac"}, names)
}

func TestOverwritePersists(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	p := models.UserProfile{Theme: "bogus", Subscriptions: models.SubscriptionSet{9}}
	r.Overwrite(p)

	require.Len(t, persist.saved, 1)
	assert.Equal(t, models.ThemeDefault, persist.last().Theme)
	assert.Equal(t, models.FilterToday, persist.last().DashboardScheduleFilter)
	assert.NotNil(t, persist.last().Favorites)
	assert.True(t, r.IsSubscribed(9))
}

func TestOverwriteDropsDuplicateIDs(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	p := models.DefaultUserProfile()
	p.Favorites = []models.FavoriteEntry{
		{ID: 7, Kind: models.MediaKindTV, Name: "Severance"},
		{ID: 8, Kind: models.MediaKindMovie, Name: "Heat"},
		{ID: 7, Kind: models.MediaKindTV, Name: "Severance (copy)"},
	}
	r.Overwrite(p)

	require.Len(t, r.Favorites(), 2)
	assert.Equal(t, "Severance", r.Favorites()[0].Name)
	assert.Len(t, persist.last().Favorites, 2)

	assert.False(t, r.ToggleFavorite(show(7, "Severance")))
	assert.False(t, r.IsFavorite(7))
	assert.Len(t, r.Favorites(), 1)
}

func TestReplaceDropsDuplicateIDs(t *testing.T) {
	r := NewRegistry(nil)
	p := models.DefaultUserProfile()
	p.Favorites = []models.FavoriteEntry{
		{ID: 3, Kind: models.MediaKindMovie, Name: "Alien"},
		{ID: 3, Kind: models.MediaKindMovie, Name: "Alien"},
	}
	r.Replace(p)

	r.ToggleFavorite(movie(3, "Alien"))
	assert.False(t, r.IsFavorite(3))
}

func TestConcurrentMutationsPersistInOrder(t *testing.T) {
	persist := &recordingPersister{}
	r := NewRegistry(persist)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			r.ToggleFavorite(movie(id, "Title"))
		}(int64(i))
	}
	wg.Wait()

	require.Len(t, persist.saved, 50)
	for i, saved := range persist.saved {
		assert.Len(t, saved.Favorites, i+1)
	}
	assert.Equal(t, r.Favorites(), persist.last().Favorites)
}
