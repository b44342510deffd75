package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	"marquee/internal/metrics"
)

// maxBodyBytes caps how much of a catalog response is read.
const maxBodyBytes = 8 << 20

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks marquee/services/catalog Fetcher

// Fetcher is the catalog read interface consumed by the schedule,
// recommendation and dashboard services.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, v any) error
}

// Client issues read-only catalog requests through the key-injecting proxy.
type Client struct {
	proxyURL string
	language string
	httpc    *http.Client
}

// NewClient creates a client for the proxy at proxyURL. language is optional
// and is normalized to a BCP 47 tag with a region ("en" -> "en-US").
func NewClient(proxyURL, lang string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	normalized := ""
	if strings.TrimSpace(lang) != "" {
		normalized = NormalizeLanguage(lang)
	}
	return &Client{
		proxyURL: strings.TrimSpace(proxyURL),
		language: normalized,
		httpc:    httpc,
	}
}

// Fetch requests endpoint (a catalog path with optional query string, e.g.
// "tv/1399/season/2") and decodes the JSON body into v.
func (c *Client) Fetch(ctx context.Context, endpoint string, v any) error {
	body, err := c.FetchRaw(ctx, endpoint)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		metrics.CatalogFetches.WithLabelValues("decode_error").Inc()
		return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// FetchRaw returns the undecoded JSON body, validated as JSON.
func (c *Client) FetchRaw(ctx context.Context, endpoint string) (json.RawMessage, error) {
	endpoint = strings.TrimPrefix(strings.TrimSpace(endpoint), "/")
	target := c.requestURL(c.withLanguage(endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.CatalogFetches.WithLabelValues("network_error").Inc()
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.CatalogFetches.WithLabelValues("network_error").Inc()
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.CatalogFetches.WithLabelValues("http_error").Inc()
		log.Printf("[catalog] %s failed: %s", endpoint, resp.Status)
		return nil, &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    messageFromBody(body),
			Err:        fmt.Errorf("catalog request failed: %s", resp.Status),
		}
	}

	if !json.Valid(body) {
		metrics.CatalogFetches.WithLabelValues("decode_error").Inc()
		return nil, &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed JSON body")}
	}

	metrics.CatalogFetches.WithLabelValues("ok").Inc()
	return json.RawMessage(body), nil
}

func (c *Client) requestURL(endpoint string) string {
	sep := "?"
	if strings.Contains(c.proxyURL, "?") {
		sep = "&"
	}
	return c.proxyURL + sep + "endpoint=" + url.QueryEscape(endpoint)
}

func (c *Client) withLanguage(endpoint string) string {
	if c.language == "" {
		return endpoint
	}
	path, rawQuery, _ := strings.Cut(endpoint, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil || q.Has("language") {
		return endpoint
	}
	q.Set("language", c.language)
	return path + "?" + q.Encode()
}

// Endpoint joins a catalog path and query parameters into an endpoint string.
func Endpoint(path string, params url.Values) string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// NormalizeLanguage canonicalizes a language setting into "ll-RR" form,
// filling the most likely region when only a language is given. Unparseable
// input yields "en-US".
func NormalizeLanguage(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if err != nil {
		return "en-US"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "en-US"
	}
	region, _ := tag.Region()
	return base.String() + "-" + region.String()
}
