// internal/workers/discovery/query-catalog/models.go
package querycatalog

import "product-discovery/internal/models"

type Input struct {
	Intent models.Intent `json:"intent"`
}

type Output struct {
	Result models.QueryResult `json:"result"`
}

// Filter is the backend-neutral form of an intent. Limit already includes
// the extra row used to detect truncation.
type Filter struct {
	Keywords     []string `json:"keywords,omitempty"`
	Category     string   `json:"category,omitempty"`
	MinPrice     *float64 `json:"minPrice,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	LocationHint string   `json:"locationHint,omitempty"`
	Offset       int      `json:"offset"`
	Limit        int      `json:"limit"`
}

func (f Filter) hasPriceBound() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

func (f Filter) hasProductFilter() bool {
	return len(f.Keywords) > 0 || f.hasPriceBound()
}
