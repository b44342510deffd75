package utils

import (
	"net/http"

	"github.com/gorilla/mux"
)

// corsMiddleware answers preflights and echoes trusted origins.
func corsMiddleware(policy *OriginPolicy) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && policy.Allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewRouter constructs the base router with CORS and the health check.
// Additional middleware runs after CORS in the order given.
func NewRouter(policy *OriginPolicy, middleware ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware(policy))
	r.Use(middleware...)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	return r
}
