// pkg/policy/policy.go
package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/hbollon/go-edlib"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML policy from path over the built-in defaults. An empty
// path returns the defaults.
func Load(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Marshal renders p as YAML.
func (p *Policy) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

// Validate checks the invariants the pipeline relies on.
func (p *Policy) Validate() error {
	if p.Continuation.CheaperFactor <= 0 || p.Continuation.CheaperFactor >= 1 {
		return fmt.Errorf("continuation.cheaper_factor must be in (0, 1), got %v", p.Continuation.CheaperFactor)
	}
	if len(p.Suggestions) < 4 {
		return fmt.Errorf("at least 4 suggestions are required, got %d", len(p.Suggestions))
	}
	for _, t := range append(append([]Term{}, p.Categories...), p.Products...) {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("vocabulary term with empty name")
		}
	}
	if p.Fuzzy.MinSimilarity < 0 || p.Fuzzy.MinSimilarity > 1 {
		return fmt.Errorf("fuzzy.min_similarity must be in [0, 1], got %v", p.Fuzzy.MinSimilarity)
	}
	if p.Currency.Symbol == "" {
		return fmt.Errorf("currency.symbol is required")
	}
	return nil
}

// CanonicalCategory resolves a word or category name to its canonical form.
func (p *Policy) CanonicalCategory(word string) (string, bool) {
	return lookup(p.Categories, word)
}

// ProductKeyword resolves a word to its canonical product keyword.
func (p *Policy) ProductKeyword(word string) (string, bool) {
	return lookup(p.Products, word)
}

// MatchCategory is CanonicalCategory with a fuzzy fallback for misspellings.
func (p *Policy) MatchCategory(word string) (string, bool) {
	if name, ok := lookup(p.Categories, word); ok {
		return name, true
	}
	return p.closest(p.Categories, word)
}

// MatchProduct is ProductKeyword with a fuzzy fallback for misspellings.
func (p *Policy) MatchProduct(word string) (string, bool) {
	if name, ok := lookup(p.Products, word); ok {
		return name, true
	}
	return p.closest(p.Products, word)
}

// closest returns the term whose name or alias is most similar to word.
// Earlier terms win ties.
func (p *Policy) closest(terms []Term, word string) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if p.Fuzzy.MinSimilarity <= 0 || len([]rune(w)) < p.Fuzzy.MinLength {
		return "", false
	}
	if p.IsStopword(w) || p.IsCurrencyMarker(w) {
		return "", false
	}

	best, bestScore := "", float32(0)
	for _, t := range terms {
		for _, form := range append([]string{t.Name}, t.Aliases...) {
			score, err := edlib.StringsSimilarity(w, strings.ToLower(form), edlib.Levenshtein)
			if err != nil {
				continue
			}
			if score > bestScore {
				best, bestScore = t.Name, score
			}
		}
	}
	if best == "" || float64(bestScore) < p.Fuzzy.MinSimilarity {
		return "", false
	}
	return best, true
}

// IsStopword reports whether word carries no search meaning.
func (p *Policy) IsStopword(word string) bool {
	return contains(p.Stopwords, word)
}

// IsCurrencyMarker reports whether word denotes currency ("rs", "₹", ...).
func (p *Policy) IsCurrencyMarker(word string) bool {
	return contains(p.Currency.Markers, word)
}

func lookup(terms []Term, word string) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return "", false
	}
	for _, t := range terms {
		if strings.ToLower(t.Name) == w {
			return t.Name, true
		}
		for _, alias := range t.Aliases {
			if strings.ToLower(alias) == w {
				return t.Name, true
			}
		}
	}
	return "", false
}

func contains(list []string, word string) bool {
	for _, s := range list {
		if s == word {
			return true
		}
	}
	return false
}
