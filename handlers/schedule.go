package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"marquee/models"
	"marquee/services/catalog"
	"marquee/services/recommendations"
)

// ScheduleHandler serves the schedule projections, spotlight,
// recommendations and title details.
type ScheduleHandler struct {
	Apps AppProvider
}

func NewScheduleHandler(apps AppProvider) *ScheduleHandler {
	return &ScheduleHandler{Apps: apps}
}

func scheduleResponse(items []models.ScheduleItem, err error, refreshedAt time.Time) models.ScheduleResponse {
	resp := models.ScheduleResponse{Items: items, Total: len(items)}
	if resp.Items == nil {
		resp.Items = []models.ScheduleItem{}
	}
	if err != nil {
		resp.Error = catalog.UserMessage(err)
	}
	if !refreshedAt.IsZero() {
		resp.RefreshedAt = refreshedAt.Format(time.RFC3339)
	}
	return resp
}

// GetSchedule returns the full agenda with past items flagged. A failed
// refresh yields an empty list and an error message, not a 5xx.
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") == "true" {
		_ = app.RefreshSchedule(r.Context())
	}
	err := app.EnsureSchedule(r.Context())
	now := app.Now()
	if loc != nil {
		now = now.In(loc)
	}
	engine := app.Schedule()
	writeJSON(w, http.StatusOK, scheduleResponse(engine.Agenda(now), err, engine.Status().LastRefreshAt))
}

// GetUpcoming returns the dashboard digest for ?filter=today|week|month,
// defaulting to the user's saved filter.
func (h *ScheduleHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	filter := app.Registry().Profile().DashboardScheduleFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("filter")); raw != "" {
		parsed, err := models.ParseScheduleFilter(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = parsed
	}

	err := app.EnsureSchedule(r.Context())
	now := app.Now()
	if loc != nil {
		now = now.In(loc)
	}
	engine := app.Schedule()
	resp := scheduleResponse(engine.Upcoming(filter, now), err, engine.Status().LastRefreshAt)
	resp.Filter = string(filter)
	writeJSON(w, http.StatusOK, resp)
}

// GetCalendar returns the shows airing on each day of ?year=&month=,
// defaulting to the current month.
func (h *ScheduleHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	now := app.Now()
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1900 || v > 2200 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = v
	}
	if raw := q.Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = v
	}

	err := app.EnsureSchedule(r.Context())
	resp := map[string]any{"calendar": app.Schedule().Calendar(year, time.Month(month))}
	if err != nil {
		resp["error"] = catalog.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSpotlight returns favorites releasing or airing near today and the
// index to focus.
func (h *ScheduleHandler) GetSpotlight(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}
	_ = app.EnsureSchedule(r.Context())
	now := app.Now()
	if loc != nil {
		now = now.In(loc)
	}
	writeJSON(w, http.StatusOK, app.Schedule().Spotlight(app.Registry().Movies(), now))
}

// GetStatus reports the schedule engine state.
func (h *ScheduleHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, app.Schedule().Status())
}

// GetRecommendations returns titles similar to the user's favorites. When
// no discovery query succeeds the list is empty and hidden is set.
func (h *ScheduleHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	recs, err := app.Recommendations(r.Context())
	if err != nil && !errors.Is(err, recommendations.ErrUnavailable) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  recs,
		"total":  len(recs),
		"hidden": len(recs) == 0,
	})
}

// GetDetails returns one title with providers, cast and favorite state.
func (h *ScheduleHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	kind, err := models.ParseMediaKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "kind must be movie or tv")
		return
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	view, err := app.Details(r.Context(), kind, id)
	if err != nil {
		status := http.StatusBadGateway
		var fe *catalog.FetchError
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, catalog.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
