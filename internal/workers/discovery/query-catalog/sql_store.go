// internal/workers/discovery/query-catalog/sql_store.go
package querycatalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"product-discovery/internal/common/database"
	"product-discovery/internal/models"
)

// SQLStore reads the catalog from postgres or sqlite. Every filter value
// is passed as a bind parameter.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLStore(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Name() string {
	return string(s.dialect)
}

const productColumns = `p.id, p.name, p.price, p.unit, p.category, p.business_id`

const businessColumns = `b.id, b.name, b.category, b.phone, b.address`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE metacharacters in user text.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// queryBuilder numbers placeholders in the order they are written, which
// is also the order sqlite binds positional parameters.
type queryBuilder struct {
	dialect database.Dialect
	args    []interface{}
}

func (q *queryBuilder) bind(v interface{}) string {
	q.args = append(q.args, v)
	return q.dialect.Placeholder(len(q.args))
}

func (q *queryBuilder) like(expr, pattern string) string {
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, expr, q.bind(pattern))
}

func (q *queryBuilder) contains(expr, keyword string) string {
	return q.like(expr, "%"+escapeLike(strings.ToLower(keyword))+"%")
}

func (q *queryBuilder) anyKeyword(keywords []string, exprs ...string) string {
	parts := make([]string, 0, len(keywords)*len(exprs))
	for _, kw := range keywords {
		for _, expr := range exprs {
			parts = append(parts, q.contains(expr, kw))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// productConditions returns the product-level predicates on alias p.
func (q *queryBuilder) productConditions(f Filter, withCategory bool) []string {
	var conds []string
	if len(f.Keywords) > 0 {
		conds = append(conds, q.anyKeyword(f.Keywords, "LOWER(p.name)", "LOWER(p.category)"))
	}
	if withCategory && f.Category != "" {
		conds = append(conds, "LOWER(p.category) = "+q.bind(strings.ToLower(f.Category)))
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price >= "+q.bind(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price <= "+q.bind(*f.MaxPrice))
	}
	return conds
}

// relevance ranks whole-word name matches first, then substring name
// matches, then category-only matches.
func (q *queryBuilder) relevance(keywords []string) string {
	whole := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		whole = append(whole, q.like(`(' ' || LOWER(p.name) || ' ')`, "% "+escapeLike(strings.ToLower(kw))+" %"))
	}
	partial := q.anyKeyword(keywords, "LOWER(p.name)")
	return fmt.Sprintf("CASE WHEN (%s) THEN 0 WHEN %s THEN 1 ELSE 2 END", strings.Join(whole, " OR "), partial)
}

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *SQLStore) Products(ctx context.Context, f Filter) ([]models.Match, error) {
	q := &queryBuilder{dialect: s.dialect}

	query := "SELECT " + productColumns + ", " + businessColumns +
		" FROM products p JOIN businesses b ON b.id = p.business_id" +
		where(q.productConditions(f, true))

	switch {
	case f.hasPriceBound():
		query += " ORDER BY p.price, p.id"
	case len(f.Keywords) > 0:
		query += " ORDER BY " + q.relevance(f.Keywords) + ", p.id"
	default:
		query += " ORDER BY p.id"
	}
	query += " LIMIT " + q.bind(f.Limit) + " OFFSET " + q.bind(f.Offset)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var p models.Product
		var b models.Business
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.Unit, &p.Category, &p.BusinessID,
			&b.ID, &b.Name, &b.Category, &b.Phone, &b.Address,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		product := p
		matches = append(matches, models.Match{Product: &product, Business: b})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return matches, nil
}

func (s *SQLStore) Businesses(ctx context.Context, f Filter) ([]models.Match, error) {
	q := &queryBuilder{dialect: s.dialect}

	var conds []string
	switch {
	case f.hasPriceBound():
		conds = append(conds, "EXISTS (SELECT 1 FROM products p WHERE p.business_id = b.id AND "+
			strings.Join(q.productConditions(f, false), " AND ")+")")
	case len(f.Keywords) > 0:
		byBusiness := q.anyKeyword(f.Keywords, "LOWER(b.name)", "LOWER(b.address)", "LOWER(b.category)")
		byProduct := q.anyKeyword(f.Keywords, "LOWER(p.name)", "LOWER(p.category)")
		conds = append(conds, fmt.Sprintf(
			"(%s OR EXISTS (SELECT 1 FROM products p WHERE p.business_id = b.id AND %s))", byBusiness, byProduct))
	}
	if f.Category != "" {
		conds = append(conds, "LOWER(b.category) = "+q.bind(strings.ToLower(f.Category)))
	}
	if f.LocationHint != "" {
		conds = append(conds, q.contains("LOWER(b.address)", f.LocationHint))
	}

	query := "SELECT " + businessColumns + " FROM businesses b" + where(conds)
	if f.hasPriceBound() {
		query += " ORDER BY (SELECT MIN(p.price) FROM products p WHERE p.business_id = b.id AND " +
			strings.Join(q.productConditions(f, false), " AND ") + "), b.id"
	} else {
		query += " ORDER BY b.id"
	}
	query += " LIMIT " + q.bind(f.Limit) + " OFFSET " + q.bind(f.Offset)

	businesses, err := s.scanBusinesses(ctx, query, q.args)
	if err != nil {
		return nil, err
	}

	// The business rows are closed before the per-business lookups so a
	// single-connection pool is never asked for a second connection.
	matches := make([]models.Match, 0, len(businesses))
	for _, b := range businesses {
		m := models.Match{Business: b}
		if f.hasProductFilter() {
			p, err := s.cheapestProduct(ctx, b.ID, f)
			if err != nil {
				return nil, err
			}
			m.Product = p
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (s *SQLStore) scanBusinesses(ctx context.Context, query string, args []interface{}) ([]models.Business, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	var out []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.Phone, &b.Address); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return out, nil
}

func (s *SQLStore) cheapestProduct(ctx context.Context, businessID string, f Filter) (*models.Product, error) {
	q := &queryBuilder{dialect: s.dialect}
	conds := []string{"p.business_id = " + q.bind(businessID)}
	conds = append(conds, q.productConditions(f, false)...)
	query := "SELECT " + productColumns + " FROM products p" + where(conds) + " ORDER BY p.price, p.id LIMIT 1"

	var p models.Product
	err := s.db.QueryRowContext(ctx, query, q.args...).
		Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &p.Category, &p.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cheapest product for %s: %w", businessID, err)
	}
	return &p, nil
}
