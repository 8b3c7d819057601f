// Package imagecache provides a content-addressed on-disk cache for
// downloaded images, keyed by a hash of the source URL.
package imagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/croptint/internal/util/http"
)

// DefaultDir is the cache directory used when none is configured.
const DefaultDir = ".image_cache"

// FetchFunc retrieves the raw bytes behind a URL on a cache miss.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Cache maps image URLs to locally stored raw bytes. Entries are written
// once and never mutated; the same URL always resolves to the same entry,
// across runs and across processes.
type Cache struct {
	dir   string
	fetch FetchFunc
}

// New creates a Cache rooted at dir. If dir is empty, DefaultDir is used.
// If fetch is nil, a plain HTTP GET with the default timeout is used.
func New(dir string, fetch FetchFunc) *Cache {
	if dir == "" {
		dir = DefaultDir
	}
	if fetch == nil {
		fetch = func(ctx context.Context, url string) ([]byte, error) {
			return httputil.Fetch(ctx, url, httputil.FetchOptions{})
		}
	}
	return &Cache{dir: dir, fetch: fetch}
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the cache key for a URL: the SHA-256 hex digest of the URL
// string. The key depends on nothing but the URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", hash)
}

// Path returns the on-disk location for a URL's cache entry.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, Key(url)+".img")
}

// GetOrFetch returns the cached bytes for url, fetching and storing them
// first if no entry exists. Existing entries are returned without any
// network access and are never overwritten.
func (c *Cache) GetOrFetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("invalid URL %q: must start with http:// or https://", url)
	}

	path := c.Path(url)

	// Cache hit.
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.store(path, data); err != nil {
		return nil, err
	}

	return data, nil
}

// store writes data under path atomically: the entry is written to a
// temporary file and renamed into place, so a concurrent writer for the
// same URL can never leave a partial entry behind. Both writers produce
// the same bytes, so last-rename-wins is harmless.
func (c *Cache) store(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return nil
}
