// internal/common/database/catalog.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"product-discovery/internal/models"
)

// Dialect selects placeholder syntax for the SQL catalog.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Catalog DDL shared by postgres and sqlite.
var catalogSchema = []string{
	`CREATE TABLE IF NOT EXISTS businesses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL CHECK (price >= 0),
		unit TEXT NOT NULL,
		category TEXT NOT NULL,
		business_id TEXT NOT NULL REFERENCES businesses(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category)`,
	`CREATE INDEX IF NOT EXISTS idx_products_business ON products (business_id)`,
	`CREATE INDEX IF NOT EXISTS idx_businesses_category ON businesses (category)`,
}

// ApplyCatalogSchema creates the catalog tables if they do not exist.
func ApplyCatalogSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range catalogSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply catalog schema: %w", err)
		}
	}
	return nil
}

// SeedCatalog inserts businesses and products, skipping existing ids.
func SeedCatalog(ctx context.Context, db *sql.DB, dialect Dialect, businesses []models.Business, products []models.Product) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	p := dialect.Placeholder
	insertBusiness := fmt.Sprintf(
		`INSERT INTO businesses (id, name, category, address, phone) VALUES (%s, %s, %s, %s, %s) ON CONFLICT (id) DO NOTHING`,
		p(1), p(2), p(3), p(4), p(5),
	)
	insertProduct := fmt.Sprintf(
		`INSERT INTO products (id, name, price, unit, category, business_id) VALUES (%s, %s, %s, %s, %s, %s) ON CONFLICT (id) DO NOTHING`,
		p(1), p(2), p(3), p(4), p(5), p(6),
	)

	for _, b := range businesses {
		if _, err := tx.ExecContext(ctx, insertBusiness, b.ID, b.Name, b.Category, b.Address, b.Phone); err != nil {
			return fmt.Errorf("seed business %s: %w", b.ID, err)
		}
	}
	for _, pr := range products {
		if _, err := tx.ExecContext(ctx, insertProduct, pr.ID, pr.Name, pr.Price, pr.Unit, pr.Category, pr.BusinessID); err != nil {
			return fmt.Errorf("seed product %s: %w", pr.ID, err)
		}
	}

	return tx.Commit()
}

// DemoBusinesses is the sample seller list used by the seed command and tests.
func DemoBusinesses() []models.Business {
	return []models.Business{
		{ID: "b1", Name: "Sai Kirana Store", Category: "Grocery", Address: "Madhapur, Hyderabad", Phone: "9876543210"},
		{ID: "b2", Name: "Fresh Mart Vegetables", Category: "Vegetables", Address: "Gachibowli, Hyderabad", Phone: "9876543211"},
		{ID: "b3", Name: "Quality Grocers", Category: "Grocery", Address: "Kondapur, Hyderabad", Phone: "9876543212"},
	}
}

// DemoProducts is the sample product list used by the seed command and tests.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "1", Name: "Basmati Rice", Price: 120, Unit: "kg", Category: "Grocery", BusinessID: "b1"},
		{ID: "2", Name: "Fresh Tomatoes", Price: 40, Unit: "kg", Category: "Vegetables", BusinessID: "b2"},
		{ID: "3", Name: "Sunflower Oil", Price: 180, Unit: "liter", Category: "Grocery", BusinessID: "b1"},
		{ID: "4", Name: "Whole Wheat Atta", Price: 50, Unit: "kg", Category: "Grocery", BusinessID: "b3"},
		{ID: "5", Name: "Fresh Onions", Price: 35, Unit: "kg", Category: "Vegetables", BusinessID: "b2"},
		{ID: "6", Name: "Toor Dal", Price: 140, Unit: "kg", Category: "Grocery", BusinessID: "b3"},
	}
}
