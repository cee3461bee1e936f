// internal/workers/discovery/query-catalog/store.go
package querycatalog

import (
	"context"

	"product-discovery/internal/models"
)

// Store is a read-only catalog backend.
//
// Products returns (product, business) pairs in result order. Businesses
// returns distinct businesses, each paired with its cheapest matching
// product when the filter constrains products.
type Store interface {
	Name() string
	Products(ctx context.Context, f Filter) ([]models.Match, error)
	Businesses(ctx context.Context, f Filter) ([]models.Match, error)
}
