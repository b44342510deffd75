package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, env map[string]string) *Manager {
	t.Helper()
	m := NewManager(filepath.Join(t.TempDir(), "nested", "settings.json"))
	m.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return m
}

func TestLoadCreatesDefaults(t *testing.T) {
	m := newTestManager(t, nil)

	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	_, err = os.Stat(m.Path())
	assert.NoError(t, err, "defaults should be written to disk")
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.EnsureDir())
	require.NoError(t, os.WriteFile(m.Path(), []byte(`{"server":{"port":9000},"catalog":{"region":"GB"}}`), 0o644))

	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, s.Server.Port)
	assert.Equal(t, "0.0.0.0", s.Server.Host)
	assert.Equal(t, "GB", s.Catalog.Region)
	assert.Equal(t, "https://api.themoviedb.org", s.Catalog.UpstreamURL)
	assert.Equal(t, 6, s.Schedule.Concurrency)
	assert.Equal(t, 7, s.Schedule.SpotlightWindowDays)
	assert.Equal(t, 360, s.Schedule.RefreshIntervalMinutes)
	assert.Equal(t, "cache/profiles.db", s.Database.Path)
	assert.Equal(t, 600, s.RateLimit.RequestsPerMinute)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.EnsureDir())
	require.NoError(t, os.WriteFile(m.Path(), []byte(`{"server":`), 0o644))

	_, err := m.Load()
	assert.Error(t, err)
}

func TestEnvironmentOverridesSecrets(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"TMDB_API_KEY":        " secret ",
		"FIREBASE_API_KEY":    "fb-key",
		"FIREBASE_PROJECT_ID": "",
	})
	s := DefaultSettings()
	s.Firebase.ProjectID = "from-file"
	require.NoError(t, m.Save(s))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Catalog.APIKey)
	assert.Equal(t, "fb-key", loaded.Firebase.APIKey)
	assert.Equal(t, "from-file", loaded.Firebase.ProjectID, "blank env values do not override")

	var onDisk Settings
	data, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Empty(t, onDisk.Catalog.APIKey, "env secrets are never written back")
}

func TestSaveIsAtomic(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.Save(DefaultSettings()))

	_, err := os.Stat(m.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestMissingFirebaseVar(t *testing.T) {
	f := FirebaseSettings{
		APIKey:            "a",
		AuthDomain:        "b",
		ProjectID:         "c",
		StorageBucket:     "d",
		MessagingSenderID: "e",
		AppID:             "f",
	}
	assert.Equal(t, "", f.MissingFirebaseVar())

	f.StorageBucket = " "
	f.AppID = ""
	assert.Equal(t, "FIREBASE_STORAGE_BUCKET", f.MissingFirebaseVar())

	assert.Equal(t, "FIREBASE_API_KEY", FirebaseSettings{}.MissingFirebaseVar())
}

func TestEmptyPath(t *testing.T) {
	m := NewManager("")
	_, err := m.Load()
	assert.Error(t, err)
	assert.Error(t, m.Save(DefaultSettings()))
}
