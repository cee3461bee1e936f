// internal/common/database/sql.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLClient is a catalog connection pool for one SQL dialect.
type SQLClient struct {
	DB      *sql.DB
	Dialect Dialect
}

func (c *SQLClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping failed: %w", c.Dialect, err)
	}
	return nil
}

// CatalogReady fails until the catalog tables exist and hold at least one
// product. It is the readiness probe for SQL-backed catalogs.
func (c *SQLClient) CatalogReady(ctx context.Context) error {
	var n int
	if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return fmt.Errorf("%s catalog not readable: %w", c.Dialect, err)
	}
	if n == 0 {
		return fmt.Errorf("%s catalog has no products", c.Dialect)
	}
	return nil
}

func (c *SQLClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
