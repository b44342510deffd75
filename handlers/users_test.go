package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/handlers"
	"marquee/models"
)

type favoritesResponse struct {
	Added     bool                   `json:"added"`
	Removed   int                    `json:"removed"`
	Favorites []models.FavoriteEntry `json:"favorites"`
}

type profileBody struct {
	UserID  string             `json:"userId"`
	Profile models.UserProfile `json:"profile"`
	Header  models.ThemeHeader `json:"header"`
}

func TestGetProfileCreatesDefaults(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)

	rec := httptest.NewRecorder()
	h.GetProfile(rec, newRequest(http.MethodGet, "/api/users/u1/profile", nil, map[string]string{"userID": "u1"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[profileBody](t, rec)
	if body.UserID != "u1" {
		t.Fatalf("expected userId u1, got %q", body.UserID)
	}
	if body.Profile.Theme != models.ThemeDefault || body.Profile.DashboardScheduleFilter != models.FilterToday {
		t.Fatalf("unexpected defaults: %+v", body.Profile)
	}
	if body.Header.Title != "Entertainment Hub" {
		t.Fatalf("unexpected header: %+v", body.Header)
	}

	snap, ok, err := env.store.Get(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("expected stored defaults, ok=%v err=%v", ok, err)
	}
	if len(snap.Profile.Favorites) != 0 {
		t.Fatalf("expected no favorites, got %d", len(snap.Profile.Favorites))
	}
}

func TestUserRoutesRequireUserID(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)

	rec := httptest.NewRecorder()
	h.GetProfile(rec, newRequest(http.MethodGet, "/api/users//profile", nil, map[string]string{"userID": " "}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestToggleFavoriteTwice(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	vars := map[string]string{"userID": "u1"}
	item := models.CatalogItem{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-31", PosterPath: "/m.jpg"}

	rec := httptest.NewRecorder()
	h.ToggleFavorite(rec, newRequest(http.MethodPost, "/api/users/u1/favorites", item, vars))
	first := decode[favoritesResponse](t, rec)
	if !first.Added || len(first.Favorites) != 1 || first.Favorites[0].Kind != models.MediaKindMovie {
		t.Fatalf("unexpected first toggle: %+v", first)
	}

	rec = httptest.NewRecorder()
	h.ToggleFavorite(rec, newRequest(http.MethodPost, "/api/users/u1/favorites", item, vars))
	second := decode[favoritesResponse](t, rec)
	if second.Added || len(second.Favorites) != 0 {
		t.Fatalf("unexpected second toggle: %+v", second)
	}
}

func TestToggleFavoriteRejectsMissingID(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)

	rec := httptest.NewRecorder()
	h.ToggleFavorite(rec, newRequest(http.MethodPost, "/api/users/u1/favorites", map[string]string{"title": "x"}, map[string]string{"userID": "u1"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestToggleFavoritePersists(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)

	rec := httptest.NewRecorder()
	h.ToggleFavorite(rec, newRequest(http.MethodPost, "/api/users/u1/favorites",
		models.CatalogItem{ID: 1399, Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
		map[string]string{"userID": "u1"}))
	env.app(t, "u1").Session().Wait()

	snap, ok, err := env.store.Get(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("expected stored profile, ok=%v err=%v", ok, err)
	}
	if len(snap.Profile.Favorites) != 1 || snap.Profile.Favorites[0].Kind != models.MediaKindTV {
		t.Fatalf("unexpected stored favorites: %+v", snap.Profile.Favorites)
	}
}

func TestSetManualTime(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	app := env.app(t, "u1")
	app.ToggleFavorite(models.CatalogItem{ID: 1399, Name: "Game of Thrones"})

	rec := httptest.NewRecorder()
	h.SetManualTime(rec, newRequest(http.MethodPut, "/api/users/u1/favorites/1399/manual-time",
		map[string]string{"manualTime": "9:00 PM"}, map[string]string{"userID": "u1", "id": "1399"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[favoritesResponse](t, rec)
	if body.Favorites[0].ManualTime == nil || *body.Favorites[0].ManualTime != "9:00 PM" {
		t.Fatalf("manual time not stored: %+v", body.Favorites[0])
	}

	rec = httptest.NewRecorder()
	h.SetManualTime(rec, newRequest(http.MethodPut, "/api/users/u1/favorites/42/manual-time",
		map[string]string{"manualTime": "8pm"}, map[string]string{"userID": "u1", "id": "42"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown favorite, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.SetManualTime(rec, newRequest(http.MethodPut, "/api/users/u1/favorites/abc/manual-time",
		map[string]string{"manualTime": "8pm"}, map[string]string{"userID": "u1", "id": "abc"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestDeleteFavoritesOfKind(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	app := env.app(t, "u1")
	app.ToggleFavorite(models.CatalogItem{ID: 1, Title: "Alien"})
	app.ToggleFavorite(models.CatalogItem{ID: 2, Title: "Aliens"})
	app.ToggleFavorite(models.CatalogItem{ID: 3, Name: "Severance"})

	rec := httptest.NewRecorder()
	h.DeleteFavoritesOfKind(rec, newRequest(http.MethodDelete, "/api/users/u1/favorites?type=movie", nil, map[string]string{"userID": "u1"}))
	body := decode[favoritesResponse](t, rec)
	if body.Removed != 2 || len(body.Favorites) != 1 || body.Favorites[0].ID != 3 {
		t.Fatalf("unexpected result: %+v", body)
	}

	rec = httptest.NewRecorder()
	h.DeleteFavoritesOfKind(rec, newRequest(http.MethodDelete, "/api/users/u1/favorites?type=book", nil, map[string]string{"userID": "u1"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	app := env.app(t, "u1")
	app.ToggleFavorite(models.CatalogItem{ID: 1, Title: "Alien"})
	app.ToggleFavorite(models.CatalogItem{ID: 3, Name: "Severance"})

	rec := httptest.NewRecorder()
	h.RemoveFavorites(rec, newRequest(http.MethodPost, "/api/users/u1/favorites/remove",
		map[string][]int64{"ids": {1, 99}}, map[string]string{"userID": "u1"}))
	body := decode[favoritesResponse](t, rec)
	if body.Removed != 1 || len(body.Favorites) != 1 {
		t.Fatalf("unexpected result: %+v", body)
	}
}

func TestToggleSubscription(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	vars := map[string]string{"userID": "u1", "serviceID": "8"}

	rec := httptest.NewRecorder()
	h.ToggleSubscription(rec, newRequest(http.MethodPost, "/api/users/u1/subscriptions/8", nil, vars))
	body := decode[map[string]any](t, rec)
	if body["subscribed"] != true {
		t.Fatalf("expected subscribed, got %v", body)
	}

	rec = httptest.NewRecorder()
	h.ToggleSubscription(rec, newRequest(http.MethodPost, "/api/users/u1/subscriptions/8", nil, vars))
	body = decode[map[string]any](t, rec)
	if body["subscribed"] != false {
		t.Fatalf("expected unsubscribed, got %v", body)
	}

	rec = httptest.NewRecorder()
	h.ToggleSubscription(rec, newRequest(http.MethodPost, "/api/users/u1/subscriptions/x", nil, map[string]string{"userID": "u1", "serviceID": "x"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	vars := map[string]string{"userID": "u1"}

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, newRequest(http.MethodPatch, "/api/users/u1/settings",
		map[string]string{"userName": "Ripley", "theme": "horror", "dashboardScheduleFilter": "week"}, vars))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[profileBody](t, rec)
	if body.Profile.Theme != models.ThemeHorror || body.Header.Title != "The Overlook" {
		t.Fatalf("theme not applied: %+v", body)
	}
	if body.Profile.DashboardScheduleFilter != models.FilterWeek {
		t.Fatalf("filter not applied: %+v", body.Profile)
	}
	if body.Profile.UserName == nil || *body.Profile.UserName != "Ripley" {
		t.Fatalf("user name not applied: %+v", body.Profile)
	}
}

func TestUpdateSettingsRejectsWholeRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)

	rec := httptest.NewRecorder()
	h.UpdateSettings(rec, newRequest(http.MethodPatch, "/api/users/u1/settings",
		map[string]string{"theme": "scifi", "dashboardScheduleFilter": "year"}, map[string]string{"userID": "u1"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := env.app(t, "u1").Registry().Profile().Theme; got != models.ThemeDefault {
		t.Fatalf("theme changed despite rejection: %s", got)
	}
}

func TestPutAndDeleteProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	h := handlers.NewUsersHandler(env.apps, env.store)
	vars := map[string]string{"userID": "u1"}

	doc := models.DefaultUserProfile()
	doc.Theme = models.ThemeClean
	doc.Subscriptions = models.SubscriptionSet{8, 337}

	rec := httptest.NewRecorder()
	h.PutProfile(rec, newRequest(http.MethodPut, "/api/users/u1/profile", doc, vars))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decode[profileBody](t, rec); body.Profile.Theme != models.ThemeClean || len(body.Profile.Subscriptions) != 2 {
		t.Fatalf("profile not replaced: %+v", body.Profile)
	}

	rec = httptest.NewRecorder()
	h.DeleteProfile(rec, newRequest(http.MethodDelete, "/api/users/u1/profile", nil, vars))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok, _ := env.store.Get(context.Background(), "u1"); ok {
		t.Fatal("expected profile to be deleted")
	}
	if env.apps.Len() != 0 {
		t.Fatalf("expected app to be dropped, %d remain", env.apps.Len())
	}
}
