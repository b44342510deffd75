package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"marquee/api"
	"marquee/config"
	"marquee/handlers"
	"marquee/internal/metrics"
	"marquee/services/catalog"
	"marquee/services/dashboard"
	"marquee/services/profile"
	"marquee/services/scheduler"
	"marquee/utils"
)

func main() {
	configFlag := flag.String("config", "", "path to settings.json (default $MARQUEE_CONFIG or cache/settings.json)")
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("MARQUEE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	store, err := profile.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open profile store: %v", err)
	}

	timeout := time.Duration(settings.Catalog.TimeoutSeconds) * time.Second
	proxy := catalog.NewProxy(settings.Catalog.UpstreamURL, settings.Catalog.APIKey, &http.Client{Timeout: timeout})
	if !proxy.Configured() {
		log.Printf("[catalog-proxy] TMDB_API_KEY is not set; catalog requests will fail")
	}

	client := newCatalogClient(settings.Catalog, proxy, timeout)

	apps := dashboard.NewManager(store, client, dashboard.Options{
		Region:              settings.Catalog.Region,
		ScheduleConcurrency: settings.Schedule.Concurrency,
		SpotlightDays:       settings.Schedule.SpotlightWindowDays,
		RefreshTimeout:      time.Duration(settings.Schedule.RefreshTimeoutSeconds) * time.Second,
	})

	refresher := scheduler.NewService(apps, scheduler.Options{
		MaxAge:         time.Duration(settings.Schedule.RefreshIntervalMinutes) * time.Minute,
		RefreshTimeout: time.Duration(settings.Schedule.RefreshTimeoutSeconds) * time.Second,
	})
	if err := refresher.Start(context.Background()); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	limiter := api.NewIPRateLimiter(api.PerMinute(settings.RateLimit.RequestsPerMinute), settings.RateLimit.Burst)

	policy := utils.NewOriginPolicy(settings.Server.AllowedOrigins)
	r := utils.NewRouter(policy, api.RequestIDMiddleware, api.LoggingMiddleware)
	registerRoutes(r, routeDeps{
		settings: settings,
		proxy:    proxy,
		apps:     apps,
		store:    store,
		limiter:  limiter,
	})

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	limiter.Stop()
	if err := refresher.Stop(shutdownCtx); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	// Flushes pending profile writes before the store goes away.
	apps.Close()
	if err := store.Close(); err != nil {
		log.Printf("Profile store close error: %v", err)
	}
	log.Println("Shutdown complete")
}

// newCatalogClient builds the client used by the server's own services.
// Without an explicit proxyUrl it calls the proxy in-process, outside the
// public route and its rate limit.
func newCatalogClient(cfg config.CatalogSettings, proxy *catalog.Proxy, timeout time.Duration) *catalog.Client {
	if u := strings.TrimSpace(cfg.ProxyURL); u != "" {
		log.Printf("[catalog] using external proxy %s", u)
		return catalog.NewClient(u, cfg.Language, &http.Client{Timeout: timeout})
	}
	return catalog.NewClient(catalog.LocalProxyURL, cfg.Language, &http.Client{
		Timeout:   timeout,
		Transport: proxy.Transport(),
	})
}

type routeDeps struct {
	settings config.Settings
	proxy    *catalog.Proxy
	apps     *dashboard.Manager
	store    *profile.Store
	limiter  *api.IPRateLimiter
}

func registerRoutes(r *mux.Router, d routeDeps) {
	get := []string{http.MethodGet, http.MethodOptions}

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	bootstrap := handlers.NewBootstrapHandler(d.settings.Firebase)
	r.HandleFunc("/api/get-firebase-config", bootstrap.GetFirebaseConfig).Methods(get...)
	r.Handle("/api/catalog", d.limiter.Middleware(d.proxy)).Methods(get...)
	r.HandleFunc("/api/streaming-services", handlers.GetStreamingServices).Methods(get...)
	r.HandleFunc("/api/themes", handlers.GetThemes).Methods(get...)

	users := r.PathPrefix("/api/users/{userID}").Subrouter()
	users.Use(api.UserIDMiddleware())

	usersHandler := handlers.NewUsersHandler(d.apps, d.store)
	users.HandleFunc("/profile", usersHandler.GetProfile).Methods(get...)
	users.HandleFunc("/profile", usersHandler.PutProfile).Methods(http.MethodPut, http.MethodOptions)
	users.HandleFunc("/profile", usersHandler.DeleteProfile).Methods(http.MethodDelete, http.MethodOptions)
	users.HandleFunc("/favorites/toggle", usersHandler.ToggleFavorite).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/favorites/remove", usersHandler.RemoveFavorites).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/favorites/{id}/manual-time", usersHandler.SetManualTime).Methods(http.MethodPut, http.MethodOptions)
	users.HandleFunc("/favorites", usersHandler.DeleteFavoritesOfKind).Methods(http.MethodDelete, http.MethodOptions)
	users.HandleFunc("/subscriptions/{serviceID}/toggle", usersHandler.ToggleSubscription).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/settings", usersHandler.UpdateSettings).Methods(http.MethodPut, http.MethodOptions)

	views := handlers.NewViewsHandler(d.apps)
	users.Handle("/views/{view}", d.limiter.Middleware(http.HandlerFunc(views.GetView))).Methods(get...)

	sched := handlers.NewScheduleHandler(d.apps)
	users.HandleFunc("/schedule", sched.GetSchedule).Methods(get...)
	users.HandleFunc("/schedule/calendar", sched.GetCalendar).Methods(get...)
	users.HandleFunc("/schedule/upcoming", sched.GetUpcoming).Methods(get...)
	users.HandleFunc("/schedule/status", sched.GetStatus).Methods(get...)
	users.HandleFunc("/spotlight", sched.GetSpotlight).Methods(get...)
	users.HandleFunc("/recommendations", sched.GetRecommendations).Methods(get...)
	users.HandleFunc("/details/{kind}/{id}", sched.GetDetails).Methods(get...)
}
