// internal/common/database/sqlite.go
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"product-discovery/internal/common/config"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLite opens the catalog database described by cfg.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	return OpenSQLite(cfg.GetDSN())
}

// OpenSQLite opens a go-sqlite3 DSN. In-memory databases are pinned to a
// single connection so the data outlives individual queries.
func OpenSQLite(dsn string) (*SQLClient, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if strings.Contains(dsn, "memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(4)
	}

	return &SQLClient{DB: db, Dialect: DialectSQLite}, nil
}
