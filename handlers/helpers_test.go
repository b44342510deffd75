package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"marquee/services/catalog"
	"marquee/services/dashboard"
	"marquee/services/profile"
)

var testNow = time.Date(2024, 10, 5, 18, 0, 0, 0, time.UTC)

// fakeCatalog answers endpoints from a fixed table. Unknown endpoints 404.
type fakeCatalog struct {
	mu     sync.Mutex
	routes map[string]any
}

func (f *fakeCatalog) Fetch(_ context.Context, endpoint string, v any) error {
	f.mu.Lock()
	payload, ok := f.routes[endpoint]
	f.mu.Unlock()
	if !ok {
		return &catalog.FetchError{Endpoint: endpoint, StatusCode: http.StatusNotFound, Message: "The resource you requested could not be found."}
	}
	if err, isErr := payload.(error); isErr {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

type testEnv struct {
	store   *profile.Store
	apps    *dashboard.Manager
	catalog *fakeCatalog
}

func newTestEnv(t *testing.T, routes map[string]any) *testEnv {
	t.Helper()
	store, err := profile.Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if routes == nil {
		routes = map[string]any{}
	}
	fc := &fakeCatalog{routes: routes}
	apps := dashboard.NewManager(store, fc, dashboard.Options{
		Region: "US",
		Now:    func() time.Time { return testNow },
	})
	t.Cleanup(func() {
		apps.Close()
		store.Close()
	})
	return &testEnv{store: store, apps: apps, catalog: fc}
}

func (e *testEnv) app(t *testing.T, userID string) *dashboard.App {
	t.Helper()
	app, err := e.apps.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get app: %v", err)
	}
	return app
}

func newRequest(method, target string, body any, vars map[string]string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

// failingApps simulates a profile store that cannot be read.
type failingApps struct{}

func (failingApps) Get(context.Context, string) (*dashboard.App, error) { return nil, errStoreDown }
func (failingApps) Remove(string) {}
