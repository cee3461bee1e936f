package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectPlaceholder(t *testing.T) {
	assert.Equal(t, "$3", DialectPostgres.Placeholder(3))
	assert.Equal(t, "?", DialectSQLite.Placeholder(3))
}

func TestSeedCatalog_SQLite(t *testing.T) {
	client, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	require.NoError(t, ApplyCatalogSchema(ctx, client.DB))
	require.NoError(t, SeedCatalog(ctx, client.DB, DialectSQLite, DemoBusinesses(), DemoProducts()))
	// Seeding twice is a no-op.
	require.NoError(t, SeedCatalog(ctx, client.DB, DialectSQLite, DemoBusinesses(), DemoProducts()))

	var products, businesses int
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&products))
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`).Scan(&businesses))
	assert.Equal(t, 6, products)
	assert.Equal(t, 3, businesses)

	var price float64
	require.NoError(t, client.DB.QueryRowContext(ctx, `SELECT price FROM products WHERE id = ?`, "6").Scan(&price))
	assert.Equal(t, 140.0, price)
}

func TestSeedCatalog_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO businesses \(id, name, category, address, phone\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WithArgs("b1", "Sai Kirana Store", "Grocery", "Madhapur, Hyderabad", "9876543210").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO products \(id, name, price, unit, category, business_id\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("1", "Basmati Rice", 120.0, "kg", "Grocery", "b1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = SeedCatalog(context.Background(), db, DialectPostgres, DemoBusinesses()[:1], DemoProducts()[:1])
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCatalog_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO businesses`).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	err = SeedCatalog(context.Background(), db, DialectPostgres, DemoBusinesses()[:1], nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed business b1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClient_CatalogReady(t *testing.T) {
	client, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.Equal(t, DialectSQLite, client.Dialect)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	err = client.CatalogReady(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not readable")

	require.NoError(t, ApplyCatalogSchema(ctx, client.DB))
	err = client.CatalogReady(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no products")

	require.NoError(t, SeedCatalog(ctx, client.DB, DialectSQLite, DemoBusinesses(), DemoProducts()))
	assert.NoError(t, client.CatalogReady(ctx))
}
