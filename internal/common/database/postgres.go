// internal/common/database/postgres.go
package database

import (
	"database/sql"
	"fmt"
	"time"

	"product-discovery/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultPostgresMaxOpen = 10
	catalogConnLifetime    = 30 * time.Minute
	catalogConnIdleTime    = 5 * time.Minute
)

// NewPostgres opens the catalog on PostgreSQL. The pool is sized from cfg;
// idle connections never exceed open ones.
func NewPostgres(cfg config.PostgresConfig) (*SQLClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres catalog %s@%s:%d: %w", cfg.Database, cfg.Host, cfg.Port, err)
	}

	maxOpen := cfg.MaxConnections
	if maxOpen <= 0 {
		maxOpen = defaultPostgresMaxOpen
	}
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen / 2
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(catalogConnLifetime)
	db.SetConnMaxIdleTime(catalogConnIdleTime)

	return &SQLClient{DB: db, Dialect: DialectPostgres}, nil
}
