package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"marquee/models"
	"marquee/services/favorites"
)

// ProfileDeleter removes a user's stored document.
type ProfileDeleter interface {
	Delete(ctx context.Context, userID string) error
}

// UsersHandler serves the profile document and the favorites, subscription
// and settings mutations.
type UsersHandler struct {
	Apps  AppProvider
	Store ProfileDeleter
}

func NewUsersHandler(apps AppProvider, store ProfileDeleter) *UsersHandler {
	return &UsersHandler{Apps: apps, Store: store}
}

type profileResponse struct {
	UserID  string             `json:"userId"`
	Profile models.UserProfile `json:"profile"`
	Header  models.ThemeHeader `json:"header"`
}

func (h *UsersHandler) respondProfile(w http.ResponseWriter, userID string, p models.UserProfile) {
	writeJSON(w, http.StatusOK, profileResponse{UserID: userID, Profile: p, Header: p.Theme.Header()})
}

// GetProfile returns the user's document, creating the defaults on first use.
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	h.respondProfile(w, app.UserID(), app.Registry().Profile())
}

// PutProfile replaces the whole document.
func (h *UsersHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	var p models.UserProfile
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile document")
		return
	}
	app.Overwrite(p)
	h.respondProfile(w, app.UserID(), app.Registry().Profile())
}

// DeleteProfile drops the user's document and in-memory state.
func (h *UsersHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}
	h.Apps.Remove(userID)
	if err := h.Store.Delete(r.Context(), userID); err != nil {
		log.Printf("[users] delete profile %s failed: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}
	log.Printf("[users] deleted profile %s", userID)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite adds or removes the posted catalog item.
func (h *UsersHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	var item models.CatalogItem
	if err := decodeBody(r, &item); err != nil || item.ID <= 0 {
		writeError(w, http.StatusBadRequest, "a catalog item with an id is required")
		return
	}
	added := app.ToggleFavorite(item)
	writeJSON(w, http.StatusOK, map[string]any{
		"added":     added,
		"favorites": app.Registry().Favorites(),
	})
}

// SetManualTime stores the free-form air time of a favorite.
func (h *UsersHandler) SetManualTime(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid favorite id")
		return
	}
	var body struct {
		ManualTime string `json:"manualTime"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := app.SetManualTime(id, body.ManualTime); err != nil {
		if errors.Is(err, favorites.ErrFavoriteNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": app.Registry().Favorites()})
}

// DeleteFavoritesOfKind removes every favorite of ?type=movie|tv.
func (h *UsersHandler) DeleteFavoritesOfKind(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	kind, err := models.ParseMediaKind(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "type must be movie or tv")
		return
	}
	removed := app.RemoveKind(kind)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "favorites": app.Registry().Favorites()})
}

// RemoveFavorites removes the posted favorite ids.
func (h *UsersHandler) RemoveFavorites(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	removed := app.RemoveIDs(body.IDs)
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "favorites": app.Registry().Favorites()})
}

// ToggleSubscription flips a streaming provider subscription.
func (h *UsersHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	serviceID, err := strconv.Atoi(mux.Vars(r)["serviceID"])
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	app.ToggleSubscription(serviceID)
	writeJSON(w, http.StatusOK, map[string]any{
		"subscribed":    app.Registry().IsSubscribed(serviceID),
		"subscriptions": app.Registry().Subscriptions(),
	})
}

type settingsRequest struct {
	UserName                *string `json:"userName"`
	Theme                   *string `json:"theme"`
	DashboardScheduleFilter *string `json:"dashboardScheduleFilter"`
}

// UpdateSettings changes any of the user name, theme and digest filter.
// Invalid values reject the whole request before anything is applied.
func (h *UsersHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	var req settingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Theme != nil {
		if _, err := models.ParseTheme(*req.Theme); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.DashboardScheduleFilter != nil {
		if _, err := models.ParseScheduleFilter(*req.DashboardScheduleFilter); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	reg := app.Registry()
	if req.UserName != nil {
		reg.SetUserName(*req.UserName)
	}
	if req.Theme != nil {
		_ = reg.SetTheme(*req.Theme)
	}
	if req.DashboardScheduleFilter != nil {
		_ = reg.SetScheduleFilter(*req.DashboardScheduleFilter)
	}
	h.respondProfile(w, app.UserID(), reg.Profile())
}
