// internal/models/catalog.go
package models

// Product is a read-only catalog item.
type Product struct {
	ID         string  `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	Price      float64 `json:"price" db:"price"`
	Unit       string  `json:"unit" db:"unit"`
	Category   string  `json:"category" db:"category"`
	BusinessID string  `json:"businessId" db:"business_id"`
}

// Business is a seller listed in the catalog.
type Business struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
	Phone    string `json:"phone" db:"phone"`
	Address  string `json:"address" db:"address"`
}

// Match pairs a business with one of its products. Product is nil for
// business lookups where no product matched.
type Match struct {
	Product  *Product `json:"product,omitempty"`
	Business Business `json:"business"`
}

// Relaxation records a retry without price bounds after an empty result.
type Relaxation struct {
	DroppedMinPrice *float64 `json:"droppedMinPrice,omitempty"`
	DroppedMaxPrice *float64 `json:"droppedMaxPrice,omitempty"`
	Matches         []Match  `json:"matches"`
	Truncated       bool     `json:"truncated"`
}

// QueryResult is the bounded, ordered outcome of a catalog lookup.
type QueryResult struct {
	Matches   []Match     `json:"matches"`
	Truncated bool        `json:"truncated"`
	Relaxed   *Relaxation `json:"relaxed,omitempty"`
}

// Empty reports whether the primary query matched nothing.
func (r QueryResult) Empty() bool {
	return len(r.Matches) == 0
}

// MinObservedPrice returns the lowest product price among the matches.
func (r QueryResult) MinObservedPrice() (float64, bool) {
	found := false
	var lowest float64
	for _, m := range r.Matches {
		if m.Product == nil {
			continue
		}
		if !found || m.Product.Price < lowest {
			lowest = m.Product.Price
			found = true
		}
	}
	return lowest, found
}
