package dashboard

import (
	"context"
	"strings"
	"sync"

	"marquee/services/catalog"
	"marquee/services/profile"
)

// Manager keeps one started App per user.
type Manager struct {
	store   ProfileStore
	fetcher catalog.Fetcher
	opts    Options

	mu   sync.Mutex
	apps map[string]*App
}

func NewManager(store ProfileStore, fetcher catalog.Fetcher, opts Options) *Manager {
	return &Manager{
		store:   store,
		fetcher: fetcher,
		opts:    opts,
		apps:    make(map[string]*App),
	}
}

// Get returns the user's App, creating and loading it on first use.
func (m *Manager) Get(ctx context.Context, userID string) (*App, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, profile.ErrUserIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if app, ok := m.apps[userID]; ok {
		return app, nil
	}
	app := NewApp(userID, m.store, m.fetcher, m.opts)
	if err := app.Start(ctx, m.store); err != nil {
		return nil, err
	}
	m.apps[userID] = app
	return app, nil
}

// Remove closes and forgets the user's App, if any.
func (m *Manager) Remove(userID string) {
	m.mu.Lock()
	app, ok := m.apps[userID]
	delete(m.apps, userID)
	m.mu.Unlock()
	if ok {
		app.Close()
	}
}

// Close closes every App.
func (m *Manager) Close() {
	m.mu.Lock()
	apps := m.apps
	m.apps = make(map[string]*App)
	m.mu.Unlock()
	for _, app := range apps {
		app.Close()
	}
}

// Len returns how many users have a loaded App.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps)
}

// Apps returns the currently loaded Apps.
func (m *Manager) Apps() []*App {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*App, 0, len(m.apps))
	for _, app := range m.apps {
		out = append(out, app)
	}
	return out
}
