package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server    ServerSettings    `json:"server"`
	Catalog   CatalogSettings   `json:"catalog"`
	Firebase  FirebaseSettings  `json:"firebase"`
	Database  DatabaseSettings  `json:"database"`
	Schedule  ScheduleSettings  `json:"schedule"`
	RateLimit RateLimitSettings `json:"rateLimit"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowedOrigins"` // beyond localhost and LAN origins
}

// CatalogSettings configures both the proxy (upstream + key) and the client
// that talks to it.
type CatalogSettings struct {
	UpstreamURL    string `json:"upstreamUrl"`
	APIKey         string `json:"apiKey"`
	ProxyURL       string `json:"proxyUrl"` // empty: call the proxy in-process
	Region         string `json:"region"`
	Language       string `json:"language"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// FirebaseSettings is the browser SDK config handed out by /api/get-firebase-config.
type FirebaseSettings struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type ScheduleSettings struct {
	Concurrency            int `json:"concurrency"`
	RefreshTimeoutSeconds  int `json:"refreshTimeoutSeconds"`
	SpotlightWindowDays    int `json:"spotlightWindowDays"`
	// Loaded schedules older than this are rebuilt in the background.
	RefreshIntervalMinutes int `json:"refreshIntervalMinutes"`
}

type RateLimitSettings struct {
	RequestsPerMinute int `json:"requestsPerMinute"`
	Burst             int `json:"burst"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// envOverrides maps environment variables onto secret settings. Secrets set in
// the environment always win over the file.
var envOverrides = []struct {
	name  string
	apply func(*Settings, string)
}{
	{"TMDB_API_KEY", func(s *Settings, v string) { s.Catalog.APIKey = v }},
	{"FIREBASE_API_KEY", func(s *Settings, v string) { s.Firebase.APIKey = v }},
	{"FIREBASE_AUTH_DOMAIN", func(s *Settings, v string) { s.Firebase.AuthDomain = v }},
	{"FIREBASE_PROJECT_ID", func(s *Settings, v string) { s.Firebase.ProjectID = v }},
	{"FIREBASE_STORAGE_BUCKET", func(s *Settings, v string) { s.Firebase.StorageBucket = v }},
	{"FIREBASE_MESSAGING_SENDER_ID", func(s *Settings, v string) { s.Firebase.MessagingSenderID = v }},
	{"FIREBASE_APP_ID", func(s *Settings, v string) { s.Firebase.AppID = v }},
}

// DefaultSettings returns the settings written on first start.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7788},
		Catalog: CatalogSettings{
			UpstreamURL:    "https://api.themoviedb.org",
			Region:         "US",
			Language:       "en-US",
			TimeoutSeconds: 15,
		},
		Database: DatabaseSettings{Path: "cache/profiles.db"},
		Schedule: ScheduleSettings{
			Concurrency:            6,
			RefreshTimeoutSeconds:  60,
			SpotlightWindowDays:    7,
			RefreshIntervalMinutes: 360,
		},
		RateLimit: RateLimitSettings{RequestsPerMinute: 600, Burst: 60},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			MaxSize:    50,
			MaxAge:     7,
			MaxBackups: 3,
		},
	}
}

type Manager struct {
	path   string
	lookup func(string) (string, bool)
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath, lookup: os.LookupEnv}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file, creating it with defaults when missing, then
// backfills unset fields and applies environment overrides.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return m.applyEnv(defaults), nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", m.path, err)
	}

	return m.applyEnv(backfill(s)), nil
}

func backfill(s Settings) Settings {
	d := DefaultSettings()

	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = d.Server.Host
	}
	if s.Server.Port == 0 {
		s.Server.Port = d.Server.Port
	}

	if strings.TrimSpace(s.Catalog.UpstreamURL) == "" {
		s.Catalog.UpstreamURL = d.Catalog.UpstreamURL
	}
	if strings.TrimSpace(s.Catalog.Region) == "" {
		s.Catalog.Region = d.Catalog.Region
	}
	if strings.TrimSpace(s.Catalog.Language) == "" {
		s.Catalog.Language = d.Catalog.Language
	}
	if s.Catalog.TimeoutSeconds == 0 {
		s.Catalog.TimeoutSeconds = d.Catalog.TimeoutSeconds
	}

	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = d.Database.Path
	}

	if s.Schedule.Concurrency <= 0 {
		s.Schedule.Concurrency = d.Schedule.Concurrency
	}
	if s.Schedule.RefreshTimeoutSeconds <= 0 {
		s.Schedule.RefreshTimeoutSeconds = d.Schedule.RefreshTimeoutSeconds
	}
	if s.Schedule.SpotlightWindowDays <= 0 {
		s.Schedule.SpotlightWindowDays = d.Schedule.SpotlightWindowDays
	}
	if s.Schedule.RefreshIntervalMinutes <= 0 {
		s.Schedule.RefreshIntervalMinutes = d.Schedule.RefreshIntervalMinutes
	}

	if s.RateLimit.RequestsPerMinute <= 0 {
		s.RateLimit.RequestsPerMinute = d.RateLimit.RequestsPerMinute
	}
	if s.RateLimit.Burst <= 0 {
		s.RateLimit.Burst = d.RateLimit.Burst
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = d.Log.File
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = d.Log.MaxSize
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = d.Log.MaxBackups
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = d.Log.MaxAge
	}
	return s
}

func (m *Manager) applyEnv(s Settings) Settings {
	if m.lookup == nil {
		return s
	}
	for _, o := range envOverrides {
		if v, ok := m.lookup(o.name); ok && strings.TrimSpace(v) != "" {
			o.apply(&s, strings.TrimSpace(v))
		}
	}
	return s
}

// Save writes the settings atomically via a temp file.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// MissingFirebaseVar returns the environment variable name of the first unset
// Firebase field, or "" when the config is complete.
func (f FirebaseSettings) MissingFirebaseVar() string {
	fields := []struct {
		name  string
		value string
	}{
		{"FIREBASE_API_KEY", f.APIKey},
		{"FIREBASE_AUTH_DOMAIN", f.AuthDomain},
		{"FIREBASE_PROJECT_ID", f.ProjectID},
		{"FIREBASE_STORAGE_BUCKET", f.StorageBucket},
		{"FIREBASE_MESSAGING_SENDER_ID", f.MessagingSenderID},
		{"FIREBASE_APP_ID", f.AppID},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return field.name
		}
	}
	return ""
}
