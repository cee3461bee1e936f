// pkg/policy/schema.go
package policy

// Policy is the tunable vocabulary and heuristics behind query understanding.
type Policy struct {
	Version              string             `yaml:"version"`
	Currency             CurrencyPolicy     `yaml:"currency"`
	Categories           []Term             `yaml:"categories"`
	Products             []Term             `yaml:"products"`
	Fuzzy                FuzzyPolicy        `yaml:"fuzzy"`
	Stopwords            []string           `yaml:"stopwords"`
	BusinessPhrases      []string           `yaml:"business_phrases"`
	CategoryPhrases      []string           `yaml:"category_phrases"`
	MaxPricePhrases      []string           `yaml:"max_price_phrases"`
	MinPricePhrases      []string           `yaml:"min_price_phrases"`
	RangePhrases         []string           `yaml:"range_phrases"`
	LocationPrepositions []string           `yaml:"location_prepositions"`
	Continuation         ContinuationPolicy `yaml:"continuation"`
	RelaxOnEmpty         bool               `yaml:"relax_on_empty"`
	Suggestions          []string           `yaml:"suggestions"`
}

// CurrencyPolicy controls how amounts are recognised and rendered.
type CurrencyPolicy struct {
	Symbol  string   `yaml:"symbol"`
	Markers []string `yaml:"markers"`
}

// Term maps surface forms to one canonical value.
type Term struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// ContinuationPolicy describes follow-up phrases that reuse the previous turn.
type ContinuationPolicy struct {
	Cheaper       []string `yaml:"cheaper"`
	More          []string `yaml:"more"`
	CheaperFactor float64  `yaml:"cheaper_factor"`
}

// FuzzyPolicy tunes misspelling tolerance for vocabulary lookups.
// MinSimilarity 0 turns fuzzy matching off.
type FuzzyPolicy struct {
	MinSimilarity float64 `yaml:"min_similarity"`
	MinLength     int     `yaml:"min_length"`
}
