package fetch

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flanksource/worksheets/api"
	_ "github.com/mattn/go-sqlite3"
)

// CacheConfig holds image cache configuration
type CacheConfig struct {
	TTL    time.Duration `yaml:"ttl" json:"ttl"`         // 0 disables the cache
	DBPath string        `yaml:"db_path" json:"dbPath"` // defaults to ~/.cache/worksheets-images.db
}

// Cache keeps successfully downloaded images in sqlite so that the same
// generated image is not downloaded for every re-render of a worksheet.
// Failed fetches are never stored.
type Cache struct {
	db     *sql.DB
	config CacheConfig
	stop   chan struct{}
	once   sync.Once
}

// NewCache opens the cache database. With a TTL <= 0 it returns a disabled
// cache that never stores anything.
func NewCache(config CacheConfig) (*Cache, error) {
	if config.TTL <= 0 {
		return &Cache{config: config}, nil
	}

	if config.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.DBPath = filepath.Join(homeDir, ".cache", "worksheets-images.db")
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	cache := &Cache{
		db:     db,
		config: config,
		stop:   make(chan struct{}),
	}
	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go cache.cleanupExpired(time.Hour)

	return cache, nil
}

// Enabled reports whether entries are stored at all
func (c *Cache) Enabled() bool {
	return c != nil && c.db != nil && c.config.TTL > 0
}

// Close stops the cleanup loop and closes the database
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	var err error
	c.once.Do(func() {
		close(c.stop)
		err = c.db.Close()
	})
	return err
}

func (c *Cache) key(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}

// Get returns the cached image for url, or nil when absent or expired
func (c *Cache) Get(url string) (*api.ImageEmbed, error) {
	if !c.Enabled() {
		return nil, nil
	}

	query := `
		SELECT content_type, body
		FROM image_cache
		WHERE cache_key = ?
		  AND expires_at > ?
		LIMIT 1
	`

	var contentType string
	var body []byte
	err := c.db.QueryRow(query, c.key(url), time.Now().UTC()).Scan(&contentType, &body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	_, _ = c.db.Exec("UPDATE image_cache SET accessed_at = ? WHERE cache_key = ?", time.Now().UTC(), c.key(url))

	return api.Available(url, body, contentType), nil
}

// Set stores a successful fetch, anything else is ignored
func (c *Cache) Set(embed *api.ImageEmbed) error {
	if !c.Enabled() || embed == nil || !embed.FetchSucceeded {
		return nil
	}

	now := time.Now().UTC()
	query := `
		INSERT OR REPLACE INTO image_cache (
			cache_key, url, content_type, body, cached_at, expires_at, accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.db.Exec(query,
		c.key(embed.SourceURL), embed.SourceURL, embed.ContentType, embed.Bytes,
		now, now.Add(c.config.TTL), now,
	)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Purge removes expired entries and returns how many were deleted
func (c *Cache) Purge() (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	res, err := c.db.Exec("DELETE FROM image_cache WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	if _, err := c.db.Exec("DELETE FROM image_cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (c *Cache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			_, _ = c.Purge()
		}
	}
}

func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS image_cache (
		cache_key TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		content_type TEXT,
		body BLOB NOT NULL,
		cached_at TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		accessed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_image_cache_expires
		ON image_cache(expires_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
