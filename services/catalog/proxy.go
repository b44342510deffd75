package catalog

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"marquee/internal/metrics"
)

// Proxy forwards catalog requests upstream, appending the server-held API key.
// Upstream status and body pass through unchanged.
type Proxy struct {
	upstream string
	apiKey   string
	httpc    *http.Client
	attempts uint
	delay    time.Duration
}

// NewProxy creates a proxy for the catalog API rooted at upstream
// (e.g. "https://api.themoviedb.org").
func NewProxy(upstream, apiKey string, httpc *http.Client) *Proxy {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Proxy{
		upstream: strings.TrimRight(strings.TrimSpace(upstream), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		httpc:    httpc,
		attempts: 3,
		delay:    200 * time.Millisecond,
	}
}

// Configured reports whether an API key is available.
func (p *Proxy) Configured() bool {
	return p != nil && p.apiKey != ""
}

// UpstreamURL builds the upstream URL for endpoint, joining the key with "?"
// or "&" depending on whether endpoint already has a query string.
func (p *Proxy) UpstreamURL(endpoint string) string {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "/")
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return p.upstream + "/3/" + endpoint + sep + "api_key=" + url.QueryEscape(p.apiKey)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.Configured() {
		writeProxyError(w, http.StatusInternalServerError, "API key is not set on the server.")
		return
	}
	endpoint := strings.TrimSpace(r.URL.Query().Get("endpoint"))
	if endpoint == "" {
		writeProxyError(w, http.StatusBadRequest, "No API endpoint provided.")
		return
	}
	if path, _, _ := strings.Cut(endpoint, "?"); strings.Contains(path, "://") || strings.Contains(path, "..") {
		writeProxyError(w, http.StatusBadRequest, "Invalid API endpoint.")
		return
	}

	ctx := r.Context()
	target := p.UpstreamURL(endpoint)

	// Only transport failures are retried; any HTTP response, including 5xx,
	// is passed through as-is.
	resp, err := retry.DoWithData(
		func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/json")
			return p.httpc.Do(req)
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[catalog-proxy] upstream error (attempt %d/%d): %v", n+1, p.attempts, err)
		}),
	)
	if err != nil {
		metrics.ProxyRequests.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return
		}
		log.Printf("[catalog-proxy] failed to fetch %s: %v", endpoint, err)
		writeProxyError(w, http.StatusInternalServerError, "Failed to fetch data from the catalog.")
		return
	}
	defer resp.Body.Close()

	metrics.ProxyRequests.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("[catalog-proxy] copy body for %s: %v", endpoint, err)
	}
}

func writeProxyError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
