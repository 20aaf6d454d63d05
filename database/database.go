// Package database caches fingerprint tokens in SQLite so that unchanged
// images are not fingerprinted again on the next run.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"imagecompare/logging"
	"imagecompare/types"
)

// FingerprintCache is a SQLite-backed token cache keyed by file identity,
// target resolution and hasher name
type FingerprintCache struct {
	db     *sql.DB
	width  int
	height int
	filter string

	mu     sync.Mutex
	hits   int
	misses int
}

// InitDatabase initializes and returns a database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if it doesn't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS fingerprints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		modified_at TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		filter TEXT NOT NULL,
		hasher TEXT NOT NULL,
		token TEXT NOT NULL,
		created_at TEXT,
		UNIQUE(path, width, height, filter, hasher)
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprints_path ON fingerprints(path);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// OpenCache opens (creating if needed) the cache at dbPath for one normalization setting
func OpenCache(dbPath string, width, height int, filter string) (*FingerprintCache, error) {
	var db *sql.DB
	var err error

	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = InitDatabase(dbPath)
		if err == nil {
			break
		}
		if i < maxRetries-1 {
			logging.LogWarning("Error initializing cache (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(100 * time.Millisecond * time.Duration(i+1))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("error initializing cache %s after %d attempts: %w", dbPath, maxRetries, err)
	}

	return &FingerprintCache{db: db, width: width, height: height, filter: filter}, nil
}

// Close closes the underlying database
func (c *FingerprintCache) Close() error {
	return c.db.Close()
}

// LookupToken returns the cached token when the file has not changed since it was stored
func (c *FingerprintCache) LookupToken(sample *types.Sample, hasher string) (string, bool, error) {
	var token, storedModTime string
	var storedSize int64

	err := c.db.QueryRow(`
		SELECT token, size, modified_at FROM fingerprints
		WHERE path = ? AND width = ? AND height = ? AND filter = ? AND hasher = ?`,
		sample.Path, c.width, c.height, c.filter, hasher,
	).Scan(&token, &storedSize, &storedModTime)
	if err == sql.ErrNoRows {
		c.count(false)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("database error for %s: %w", sample.Path, err)
	}

	storedTime, err := time.Parse(time.RFC3339Nano, storedModTime)
	if err != nil {
		return "", false, fmt.Errorf("cannot parse stored time for %s: %w", sample.Path, err)
	}

	// Changed files are fingerprinted again
	if storedSize != sample.Size || sample.ModTime.After(storedTime) {
		logging.DebugLog("Cached fingerprint for %s is stale", sample.Path)
		c.count(false)
		return "", false, nil
	}

	c.count(true)
	return token, true, nil
}

// StoreToken inserts or replaces the token of a file
func (c *FingerprintCache) StoreToken(sample *types.Sample, hasher, token string) error {
	stmt, err := c.db.Prepare(`
		INSERT OR REPLACE INTO fingerprints (
			path, size, modified_at, width, height, filter, hasher, token, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", sample.Path, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		sample.Path,
		sample.Size,
		sample.ModTime.UTC().Format(time.RFC3339Nano),
		c.width,
		c.height,
		c.filter,
		hasher,
		token,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert fingerprint for %s: %w", sample.Path, err)
	}
	return nil
}

func (c *FingerprintCache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// CacheStats contains statistics about the cache
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// GetCacheStats reports the entry count and the hit/miss counters of this run
func (c *FingerprintCache) GetCacheStats() (*CacheStats, error) {
	var stats CacheStats
	if err := c.db.QueryRow("SELECT COUNT(*) FROM fingerprints").Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("failed to count fingerprints: %w", err)
	}

	c.mu.Lock()
	stats.Hits, stats.Misses = c.hits, c.misses
	c.mu.Unlock()
	return &stats, nil
}
