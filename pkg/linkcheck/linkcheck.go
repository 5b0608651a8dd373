// Package linkcheck verifies that the source URLs in the law catalog still
// resolve. The official sites are slow and intolerant of bursts, so requests
// to the same host are spaced out and results are cached in memory.
package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coolbeans/legisbr/pkg/catalog"
)

// Status classifies the outcome of checking one URL.
type Status string

const (
	StatusOK       Status = "ok"
	StatusBroken   Status = "broken"
	StatusError    Status = "error"
	StatusRedirect Status = "redirect"
)

// Result is the outcome of checking one catalog entry.
type Result struct {
	Code       string        `json:"codigo"`
	URL        string        `json:"url"`
	Status     Status        `json:"status"`
	StatusCode int           `json:"status_http,omitempty"`
	Location   string        `json:"location,omitempty"`
	Err        string        `json:"erro,omitempty"`
	Elapsed    time.Duration `json:"-"`
}

// OK reports whether the URL is usable, directly or through a redirect.
func (r Result) OK() bool {
	return r.Status == StatusOK || r.Status == StatusRedirect
}

// Report aggregates the results of a catalog sweep.
type Report struct {
	Results []Result  `json:"resultados"`
	Broken  int       `json:"quebrados"`
	Checked int       `json:"verificados"`
	RanAt   time.Time `json:"executado_em"`
}

// Config controls pacing and timeouts for a sweep.
type Config struct {
	Timeout     time.Duration
	HostSpacing time.Duration
	Concurrency int
	CacheTTL    time.Duration
	UserAgent   string
}

func DefaultConfig() Config {
	return Config{
		Timeout:     20 * time.Second,
		HostSpacing: 1500 * time.Millisecond,
		Concurrency: 4,
		CacheTTL:    time.Hour,
		UserAgent:   "legisbr/1.0 (+https://github.com/coolbeans/legisbr)",
	}
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// Checker runs URL sweeps over catalog entries.
type Checker struct {
	config Config
	client *http.Client
	log    zerolog.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	lastHost map[string]time.Time
}

func New(config Config, log zerolog.Logger) *Checker {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	return &Checker{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log:      log.With().Str("component", "linkcheck").Logger(),
		cache:    make(map[string]cacheEntry),
		lastHost: make(map[string]time.Time),
	}
}

// CheckCatalog sweeps every law in the catalog and reports broken sources.
// Results come back in catalog order.
func (c *Checker) CheckCatalog(ctx context.Context, cat *catalog.Catalog) *Report {
	report := &Report{
		Results: make([]Result, len(cat.Laws)),
		RanAt:   time.Now(),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.config.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				law := cat.Laws[i]
				report.Results[i] = c.CheckURL(ctx, law.Code, law.URL)
			}
		}()
	}
	for i := range cat.Laws {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	for _, result := range report.Results {
		report.Checked++
		if !result.OK() {
			report.Broken++
		}
	}
	return report
}

// CheckURL checks a single URL, honoring the cache and host spacing.
func (c *Checker) CheckURL(ctx context.Context, code, rawURL string) Result {
	if cached, ok := c.cached(rawURL); ok {
		cached.Code = code
		return cached
	}

	result := Result{Code: code, URL: rawURL}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		result.Status = StatusError
		result.Err = "URL inválida"
		return result
	}

	c.pace(ctx, parsed.Host)

	start := time.Now()
	result = c.probe(ctx, result)
	result.Elapsed = time.Since(start)

	c.log.Debug().
		Str("code", code).
		Str("status", string(result.Status)).
		Int("http", result.StatusCode).
		Dur("elapsed", result.Elapsed).
		Msg("checked")

	c.store(rawURL, result)
	return result
}

// probe issues a HEAD and falls back to GET when the server rejects it.
// planalto.gov.br answers HEAD with 405 on some pages.
func (c *Checker) probe(ctx context.Context, result Result) Result {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, result.URL, nil)
		if err != nil {
			result.Status = StatusError
			result.Err = err.Error()
			return result
		}
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			result.Status = StatusError
			result.Err = err.Error()
			return result
		}
		resp.Body.Close()

		result.StatusCode = resp.StatusCode
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Status = StatusOK
			return result
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			result.Status = StatusRedirect
			result.Location = resp.Header.Get("Location")
			return result
		case resp.StatusCode == http.StatusMethodNotAllowed && method == http.MethodHead:
			continue
		default:
			result.Status = StatusBroken
			return result
		}
	}
	result.Status = StatusBroken
	return result
}

func (c *Checker) cached(rawURL string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[rawURL]
	if !ok || time.Now().After(entry.expires) {
		delete(c.cache, rawURL)
		return Result{}, false
	}
	return entry.result, true
}

func (c *Checker) store(rawURL string, result Result) {
	if c.config.CacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	c.cache[rawURL] = cacheEntry{result: result, expires: time.Now().Add(c.config.CacheTTL)}
	c.mu.Unlock()
}

func (c *Checker) pace(ctx context.Context, host string) {
	if c.config.HostSpacing <= 0 {
		return
	}
	c.mu.Lock()
	last, seen := c.lastHost[host]
	wait := time.Duration(0)
	if seen {
		if elapsed := time.Since(last); elapsed < c.config.HostSpacing {
			wait = c.config.HostSpacing - elapsed
		}
	}
	c.lastHost[host] = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}
}
