package sandbox

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteCache is a Cache backed by a single-file SQLite database, for
// development and single-host deployments wanting the cache to survive a
// restart without standing up a separate database server.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (creating if necessary) a SQLite-backed Cache at
// path. Use ":memory:" for an ephemeral, in-process database.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sandbox: open sqlite cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sandbox: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sandbox: set busy timeout: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshot_cache (
			fingerprint TEXT PRIMARY KEY,
			image_tag   TEXT NOT NULL,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sandbox: create snapshot_cache table: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Close releases the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Has(ctx context.Context, fp string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM snapshot_cache WHERE fingerprint = ?", fp).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sandbox: query snapshot_cache: %w", err)
	}
	return count > 0, nil
}

func (c *SQLiteCache) MarkSnapshotted(ctx context.Context, fp, imageTag string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshot_cache (fingerprint, image_tag) VALUES (?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET image_tag = excluded.image_tag`,
		fp, imageTag,
	)
	if err != nil {
		return fmt.Errorf("sandbox: insert snapshot_cache: %w", err)
	}
	return nil
}

func (c *SQLiteCache) ImageTag(ctx context.Context, fp string) (string, error) {
	var tag string
	err := c.db.QueryRowContext(ctx, "SELECT image_tag FROM snapshot_cache WHERE fingerprint = ?", fp).Scan(&tag)
	if err == sql.ErrNoRows {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("sandbox: query snapshot_cache: %w", err)
	}
	return tag, nil
}
