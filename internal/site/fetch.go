// Package site loads the listing page the tooling and the preview server
// work on, from disk or over HTTP, and writes results back atomically.
package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "cartelera/internal/log"
)

// Result is the outcome of loading one page.
type Result struct {
	Location  string
	Body      []byte
	FromCache bool // true if a cached body was reused (304 or fetch failure)
}

// cacheEntry holds HTTP cache metadata for a single page URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Loader reads pages from paths or http(s) URLs. Remote pages use
// conditional requests (ETag / Last-Modified) backed by a disk cache.
type Loader struct {
	client   *http.Client
	cacheDir string
}

// NewLoader creates a Loader caching under cacheDir.
func NewLoader(cacheDir string) *Loader {
	if cacheDir == "" {
		cacheDir = "./var/page-cache"
	}
	return &Loader{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// IsRemote reports whether location is fetched over HTTP.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load reads location.
func (l *Loader) Load(ctx context.Context, location string) (Result, error) {
	if location == "" {
		return Result{}, errors.New("site: location is empty")
	}
	if !IsRemote(location) {
		body, err := os.ReadFile(location)
		if err != nil {
			return Result{}, fmt.Errorf("site: read %s: %w", location, err)
		}
		return Result{Location: location, Body: body}, nil
	}
	return l.fetch(ctx, location)
}

// LoadAll loads every location; failures are logged and joined.
func (l *Loader) LoadAll(ctx context.Context, locations []string) ([]Result, error) {
	results := make([]Result, 0, len(locations))
	var errs []error
	for _, loc := range locations {
		res, err := l.Load(ctx, loc)
		if err != nil {
			appLog.Error("page load failed", err, "location", redactURL(loc))
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (l *Loader) fetch(ctx context.Context, url string) (Result, error) {
	cachePath := l.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, fmt.Errorf("site: cache dir: %w", err)
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("site: request: %w", err)
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("page fetch start", "url", redactURL(url))

	resp, err := l.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("page fetch network error, using cached body", err, "url", redactURL(url))
			return Result{Location: url, Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("site: fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("site: read body: %w", err)
		}
		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("page cache save failed", err, "url", redactURL(url))
		}
		appLog.Info("page fetched", "url", redactURL(url), "bytes", len(body))
		return Result{Location: url, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Result{}, errors.New("site: 304 Not Modified but no cached body available")
		}
		appLog.Debug("page not modified; using cache", "url", redactURL(url))
		return Result{Location: url, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("page fetch non-OK, using cached body", errors.New(resp.Status), "url", redactURL(url), "status", resp.StatusCode)
			return Result{Location: url, Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("site: fetch: %s", resp.Status)
	}
}

func (l *Loader) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(l.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.html"))
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.html"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only, so tokens in paths or queries stay
// out of the logs.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return u[:i+3+j] + "/...(redacted)"
	}
	return u
}
