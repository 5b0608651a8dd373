package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache stores fetched pages as JSON files keyed by a SHA-256 hash of
// the URL. Entries past their TTL are removed on read.
type DiskCache struct {
	dir string
	ttl time.Duration
}

type cacheEntry struct {
	Result    Result    `json:"result"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewDiskCache creates the cache directory if needed.
func NewDiskCache(dir string, ttl time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &DiskCache{dir: dir, ttl: ttl}, nil
}

// Get returns the cached result for url if present and fresh.
func (c *DiskCache) Get(url string) (Result, bool) {
	data, err := os.ReadFile(c.pathFor(url))
	if err != nil {
		return Result{}, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Result{}, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(c.pathFor(url))
		return Result{}, false
	}
	return entry.Result, true
}

// Set stores a result for url.
func (c *DiskCache) Set(url string, result Result) error {
	entry := cacheEntry{
		Result:    result,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := os.WriteFile(c.pathFor(url), data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

func (c *DiskCache) pathFor(url string) string {
	hash := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}
