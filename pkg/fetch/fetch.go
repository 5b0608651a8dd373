// Package fetch downloads statute pages from the official sites with the
// manners a government archive expects: a stable user agent, spacing between
// requests, retries with backoff and a local disk cache so repeated runs
// never touch the network.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coolbeans/legisbr/pkg/catalog"
)

// DefaultUserAgent identifies the fetcher to the source sites.
const DefaultUserAgent = "legisbr/1.0 (+https://github.com/coolbeans/legisbr)"

const maxBodyBytes = 20 * 1024 * 1024

// Config controls a Client.
type Config struct {
	CacheDir   string        // disk cache location; empty disables caching
	CacheTTL   time.Duration // how long cached pages stay fresh
	Timeout    time.Duration // per-request timeout
	RetryCount int           // attempts beyond the first
	RetryDelay time.Duration // base backoff, doubled per attempt
	MinSpacing time.Duration // pause between consecutive requests to a host
	UserAgent  string

	// HostSpacing overrides MinSpacing for specific hosts, typically built
	// from the catalog's per-source rate limits.
	HostSpacing map[string]time.Duration
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		CacheTTL:   7 * 24 * time.Hour,
		Timeout:    30 * time.Second,
		RetryCount: 3,
		RetryDelay: 2 * time.Second,
		MinSpacing: time.Second,
		UserAgent:  DefaultUserAgent,
	}
}

// Result is one fetched page.
type Result struct {
	Body        []byte    `json:"body"`
	ContentType string    `json:"content_type"`
	FromCache   bool      `json:"-"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Client fetches statute pages. Safe for concurrent use; requests to the
// same host are spaced out.
type Client struct {
	config Config
	http   *http.Client
	cache  *DiskCache
	log    zerolog.Logger

	mu      sync.Mutex
	lastHit map[string]time.Time
}

// New builds a Client. The cache directory is created on demand.
func New(config Config, log zerolog.Logger) (*Client, error) {
	client := &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		log:     log.With().Str("component", "fetch").Logger(),
		lastHit: make(map[string]time.Time),
	}
	if config.CacheDir != "" {
		cache, err := NewDiskCache(config.CacheDir, config.CacheTTL)
		if err != nil {
			return nil, err
		}
		client.cache = cache
	}
	return client, nil
}

// HostSpacingFromCatalog converts the catalog's per-source rate limits into
// the per-host spacing map consumed by Config.
func HostSpacingFromCatalog(cat *catalog.Catalog) map[string]time.Duration {
	spacing := make(map[string]time.Duration)
	for _, law := range cat.Laws {
		source := cat.SourceConfig(law.Source)
		if source.Domain == "" || source.RateLimit <= 0 {
			continue
		}
		spacing[source.Domain] = time.Minute / time.Duration(source.RateLimit)
	}
	return spacing
}

// FetchLaw retrieves the full-text page for a catalog entry.
func (c *Client) FetchLaw(ctx context.Context, law catalog.Law) (Result, error) {
	return c.Fetch(ctx, law.URL)
}

// Fetch retrieves url, serving from the disk cache when fresh.
func (c *Client) Fetch(ctx context.Context, url string) (Result, error) {
	if url == "" {
		return Result{}, fmt.Errorf("empty URL")
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(url); ok {
			c.log.Debug().Str("url", url).Msg("cache hit")
			cached.FromCache = true
			return cached, nil
		}
	}

	var lastErr error
	delay := c.config.RetryDelay
	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			c.log.Warn().Str("url", url).Int("attempt", attempt).
				Err(lastErr).Msg("retrying fetch")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
			delay *= 2
		}

		c.pace(ctx, url)
		result, err := c.fetchOnce(ctx, url)
		if err == nil {
			if c.cache != nil {
				if cacheErr := c.cache.Set(url, result); cacheErr != nil {
					c.log.Warn().Err(cacheErr).Msg("cache write failed")
				}
			}
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
	}
	return Result{}, fmt.Errorf("fetching %s: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html, application/xhtml+xml, text/plain")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("reading body: %w", err)
	}

	c.log.Info().Str("url", url).Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).Msg("fetched")

	return Result{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now(),
	}, nil
}

// pace enforces the minimum spacing between live requests to one host.
func (c *Client) pace(ctx context.Context, rawURL string) {
	host := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		host = parsed.Host
	}

	spacing := c.config.MinSpacing
	if override, ok := c.config.HostSpacing[host]; ok {
		spacing = override
	}
	if spacing <= 0 {
		return
	}

	c.mu.Lock()
	wait := time.Duration(0)
	if last, seen := c.lastHit[host]; seen {
		if elapsed := time.Since(last); elapsed < spacing {
			wait = spacing - elapsed
		}
	}
	c.lastHit[host] = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}
}
