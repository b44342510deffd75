package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// userIDPattern accepts the ids issued by common auth providers.
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:@-]{1,128}$`)

// RequestID returns the id assigned to r by RequestIDMiddleware.
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDMiddleware tags every request with an id, reusing a well-formed
// incoming X-Request-ID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request. Health checks and metrics
// scrapes are skipped.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %d %dms ip=%s id=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds(), ClientIP(r), RequestID(r))
	})
}

// UserIDMiddleware rejects requests whose {userID} route variable is not a
// plausible account id.
func UserIDMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			userID, present := mux.Vars(r)["userID"]
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if !userIDPattern.MatchString(userID) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid user id"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
