package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"marquee/services/dashboard"
)

const maxRequestBody = 1 << 20

// AppProvider hands out the per-user application state.
type AppProvider interface {
	Get(ctx context.Context, userID string) (*dashboard.App, error)
	Remove(userID string)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	return dec.Decode(v)
}

// loadApp resolves the {userID} route variable to its App, writing the
// error response itself when that fails.
func loadApp(w http.ResponseWriter, r *http.Request, apps AppProvider) (*dashboard.App, bool) {
	userID := strings.TrimSpace(mux.Vars(r)["userID"])
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return nil, false
	}
	app, err := apps.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return nil, false
	}
	return app, true
}

// parseLocation reads the optional tz query parameter.
func parseLocation(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	tzName := strings.TrimSpace(r.URL.Query().Get("tz"))
	if tzName == "" {
		return nil, true
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid timezone: "+tzName)
		return nil, false
	}
	return loc, true
}
