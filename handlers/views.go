package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"marquee/services/dashboard"
)

// ViewsHandler activates a view and returns everything it renders.
type ViewsHandler struct {
	Apps AppProvider
}

func NewViewsHandler(apps AppProvider) *ViewsHandler {
	return &ViewsHandler{Apps: apps}
}

// GetView serves /views/{view}. Search takes ?query=, schedule takes
// ?year=&month=, and every view accepts ?tz=.
func (h *ViewsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(mux.Vars(r)["view"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	app, ok := loadApp(w, r, h.Apps)
	if !ok {
		return
	}
	loc, ok := parseLocation(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := dashboard.ViewRequest{View: view, Query: q.Get("query"), Location: loc}
	req.Year, _ = strconv.Atoi(q.Get("year"))
	req.Month, _ = strconv.Atoi(q.Get("month"))

	vm, err := app.Activate(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vm)
}
