// internal/models/intent.go
package models

// IntentKind is the closed set of query intents the assistant understands.
type IntentKind string

const (
	IntentProductSearch  IntentKind = "product_search"
	IntentPriceFilter    IntentKind = "price_filter"
	IntentCategorySearch IntentKind = "category_search"
	IntentBusinessFinder IntentKind = "business_finder"
	IntentNoResult       IntentKind = "no_result"
)

// IntentKinds lists every valid kind in declaration order.
var IntentKinds = []IntentKind{
	IntentProductSearch,
	IntentPriceFilter,
	IntentCategorySearch,
	IntentBusinessFinder,
	IntentNoResult,
}

// Valid reports whether k is one of the known intent kinds.
func (k IntentKind) Valid() bool {
	for _, known := range IntentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IntentSource records which extractor produced an intent.
type IntentSource string

const (
	SourceLLM      IntentSource = "llm"
	SourceFallback IntentSource = "fallback"
)

// Intent is the structured interpretation of one utterance.
type Intent struct {
	Kind         IntentKind   `json:"kind"`
	Keywords     []string     `json:"keywords"`
	Category     string       `json:"category,omitempty"`
	MaxPrice     *float64     `json:"maxPrice,omitempty"`
	MinPrice     *float64     `json:"minPrice,omitempty"`
	LocationHint string       `json:"locationHint,omitempty"`
	Offset       int          `json:"offset,omitempty"`
	Source       IntentSource `json:"source,omitempty"`
}

// HasPriceBound reports whether either price bound is set.
func (i Intent) HasPriceBound() bool {
	return i.MaxPrice != nil || i.MinPrice != nil
}

// Clone returns a deep copy so callers can mutate bounds and keywords freely.
func (i Intent) Clone() Intent {
	out := i
	if i.Keywords != nil {
		out.Keywords = append([]string(nil), i.Keywords...)
	}
	if i.MaxPrice != nil {
		out.MaxPrice = Price(*i.MaxPrice)
	}
	if i.MinPrice != nil {
		out.MinPrice = Price(*i.MinPrice)
	}
	return out
}

// Price returns a pointer to v.
func Price(v float64) *float64 {
	return &v
}
