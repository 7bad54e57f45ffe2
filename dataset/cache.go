package dataset

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
)

// Snapshot is one cached dataset download.
type Snapshot struct {
	URL       string
	Body      []byte
	SHA256    string
	FetchedAt time.Time
}

// CacheStats summarizes cache contents for status reporting.
type CacheStats struct {
	Entries    int
	TotalBytes int64
}

// Cache stores dataset snapshots in a local SQLite database so repeated
// runs and offline runs do not refetch from the network.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the snapshot database at path, creating parent
// directories as needed. The database runs in WAL mode.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating cache directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", path)
	}

	c := &Cache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating cache schema")
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		sha256 TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Get returns the snapshot stored for url. The second return value reports
// whether an entry was found. A row whose checksum no longer matches its
// body is evicted and reported as a miss.
func (c *Cache) Get(ctx context.Context, url string) (*Snapshot, bool, error) {
	var (
		body      []byte
		sum       string
		fetchedAt string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT body, sha256, fetched_at FROM snapshots WHERE url = ?`, url,
	).Scan(&body, &sum, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading cache entry for %s", url)
	}

	if checksum(body) != sum {
		if err := c.Delete(ctx, url); err != nil {
			return nil, false, errors.Wrapf(err, "evicting corrupt cache entry for %s", url)
		}
		return nil, false, nil
	}

	snap := &Snapshot{URL: url, Body: body, SHA256: sum}
	if t, parseErr := time.Parse(time.RFC3339Nano, fetchedAt); parseErr == nil {
		snap.FetchedAt = t
	}
	return snap, true, nil
}

// Put stores body under url, replacing any previous snapshot.
func (c *Cache) Put(ctx context.Context, url string, body []byte) (*Snapshot, error) {
	snap := &Snapshot{
		URL:       url,
		Body:      body,
		SHA256:    checksum(body),
		FetchedAt: time.Now().UTC(),
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshots (url, body, sha256, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET
			body=excluded.body, sha256=excluded.sha256, fetched_at=excluded.fetched_at`,
		url, body, snap.SHA256, snap.FetchedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "writing cache entry for %s", url)
	}
	return snap, nil
}

// Delete removes the snapshot stored for url, if any.
func (c *Cache) Delete(ctx context.Context, url string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM snapshots WHERE url = ?`, url)
	if err != nil {
		return errors.Wrapf(err, "deleting cache entry for %s", url)
	}
	return nil
}

// Stats reports the number of snapshots and their total body size.
func (c *Cache) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0) FROM snapshots`,
	).Scan(&stats.Entries, &stats.TotalBytes)
	if err != nil {
		return CacheStats{}, errors.Wrap(err, "reading cache stats")
	}
	return stats, nil
}

func checksum(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
