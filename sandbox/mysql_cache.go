package sandbox

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLCache is a Cache backed by MySQL, for deployments where several
// engine hosts share one snapshot cache.
type MySQLCache struct {
	db *sql.DB
}

// NewMySQLCache opens a MySQL-backed Cache using dsn (as accepted by
// github.com/go-sql-driver/mysql) and ensures its table exists.
func NewMySQLCache(dsn string) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sandbox: open mysql cache: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshot_cache (
			fingerprint VARCHAR(64) PRIMARY KEY,
			image_tag   VARCHAR(255) NOT NULL,
			created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sandbox: create snapshot_cache table: %w", err)
	}

	return &MySQLCache{db: db}, nil
}

// Close releases the underlying database connection.
func (c *MySQLCache) Close() error {
	return c.db.Close()
}

func (c *MySQLCache) Has(ctx context.Context, fp string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM snapshot_cache WHERE fingerprint = ?", fp).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sandbox: query snapshot_cache: %w", err)
	}
	return count > 0, nil
}

func (c *MySQLCache) MarkSnapshotted(ctx context.Context, fp, imageTag string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO snapshot_cache (fingerprint, image_tag) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE image_tag = VALUES(image_tag)`,
		fp, imageTag,
	)
	if err != nil {
		return fmt.Errorf("sandbox: insert snapshot_cache: %w", err)
	}
	return nil
}

func (c *MySQLCache) ImageTag(ctx context.Context, fp string) (string, error) {
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
