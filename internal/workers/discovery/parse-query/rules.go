// internal/workers/discovery/parse-query/rules.go
package parsequery

import (
	"sort"
	"strconv"
	"unicode"

	"product-discovery/internal/models"
	"product-discovery/pkg/policy"
)

// State is the working set the rules mutate while parsing one utterance.
type State struct {
	Tokens   []string
	Consumed []bool
	Intent   models.Intent

	BusinessPhrase bool
	WhereToBuy     bool
	// Rejected holds numeric matches that were dropped (negative amounts).
	Rejected []string
	// VocabularyHit is set once any category or product term matched.
	VocabularyHit bool
}

func newState(text string) *State {
	tokens := policy.Tokenize(text)
	return &State{
		Tokens:   tokens,
		Consumed: make([]bool, len(tokens)),
		Intent:   models.Intent{Keywords: []string{}, Source: models.SourceFallback},
	}
}

// Free reports whether n tokens starting at i are all unconsumed.
func (s *State) Free(i, n int) bool {
	if i < 0 || i+n > len(s.Tokens) {
		return false
	}
	for j := i; j < i+n; j++ {
		if s.Consumed[j] {
			return false
		}
	}
	return true
}

func (s *State) consume(i, n int) {
	for j := i; j < i+n && j < len(s.Consumed); j++ {
		s.Consumed[j] = true
	}
}

func (s *State) addKeyword(k string) {
	for _, existing := range s.Intent.Keywords {
		if existing == k {
			return
		}
	}
	s.Intent.Keywords = append(s.Intent.Keywords, k)
}

// Rule is one matcher in the ordered fallback rule set.
type Rule interface {
	Name() string
	Apply(s *State)
}

// DefaultRules builds the ordered rule list from p. Order matters: price
// phrases claim their tokens before the location and vocabulary rules run,
// and kind resolution is last.
func DefaultRules(p *policy.Policy) []Rule {
	return []Rule{
		&rangeRule{p: p},
		&boundRule{name: "max_price", p: p, phrases: longestFirst(p.MaxPricePhrases), max: true},
		&boundRule{name: "min_price", p: p, phrases: longestFirst(p.MinPricePhrases)},
		&currencyAmountRule{p: p},
		&phraseFlagRule{name: "business_phrase", phrases: longestFirst(p.BusinessPhrases), set: func(s *State) { s.BusinessPhrase = true }},
		&phraseFlagRule{name: "category_phrase", phrases: longestFirst(p.CategoryPhrases), set: func(s *State) { s.WhereToBuy = true }},
		&locationRule{p: p},
		&vocabularyRule{p: p},
		&residualRule{p: p},
		kindRule{},
	}
}

func longestFirst(phrases []string) []string {
	out := append([]string(nil), phrases...)
	sort.SliceStable(out, func(i, j int) bool {
		return policy.PhraseLen(out[i]) > policy.PhraseLen(out[j])
	})
	return out
}

// numberAt reads an amount at i, allowing one currency marker before or
// after it. It returns the value, the number of tokens used and whether a
// usable (non-negative) amount was found.
func numberAt(p *policy.Policy, s *State, i int) (float64, int, bool) {
	start := i
	if i < len(s.Tokens) && s.Free(i, 1) && p.IsCurrencyMarker(s.Tokens[i]) {
		i++
	}
	if !s.Free(i, 1) || !isNumber(s.Tokens[i]) {
		return 0, 0, false
	}
	v, err := strconv.ParseFloat(s.Tokens[i], 64)
	if err != nil {
		return 0, 0, false
	}
	if v < 0 {
		s.Rejected = append(s.Rejected, s.Tokens[i])
		s.consume(start, i-start+1)
		return 0, 0, false
	}
	i++
	if i < len(s.Tokens) && s.Free(i, 1) && p.IsCurrencyMarker(s.Tokens[i]) {
		i++
	}
	return v, i - start, true
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	r := rune(tok[0])
	return unicode.IsDigit(r) || (r == '-' && len(tok) > 1)
}

// rangeRule handles "between 50 and 100" and "from 50 to 100".
type rangeRule struct {
	p *policy.Policy
}

func (r *rangeRule) Name() string { return "price_range" }

func (r *rangeRule) Apply(s *State) {
	for _, phrase := range r.p.RangePhrases {
		for i := range s.Tokens {
			if !s.Free(i, 1) || !policy.PhraseAt(s.Tokens, i, phrase) {
				continue
			}
			if r.applyAt(s, i+1, 1) {
				return
			}
		}
	}
	// "50 to 100" (and "50-100", which Tokenize rewrites) without a lead word.
	for i := range s.Tokens {
		if isNumber(s.Tokens[i]) || r.p.IsCurrencyMarker(s.Tokens[i]) {
			if r.applyAt(s, i, 0) {
				return
			}
		}
	}
}

// applyAt reads "<amount> and|to <amount>" at i; lead is the number of
// tokens before i that belong to the match.
func (r *rangeRule) applyAt(s *State, i, lead int) bool {
	lo, n1, ok := numberAt(r.p, s, i)
	if !ok {
		return false
	}
	sep := i + n1
	if !s.Free(sep, 1) || (s.Tokens[sep] != "and" && s.Tokens[sep] != "to") {
		return false
	}
	hi, n2, ok := numberAt(r.p, s, sep+1)
	if !ok {
		return false
	}
	s.Intent.MinPrice = models.Price(lo)
	s.Intent.MaxPrice = models.Price(hi)
	s.consume(i-lead, lead+n1+1+n2)
	return true
}

// boundRule sets one price bound from a direction phrase followed by an
// amount ("under 150", "more than rs 200").
type boundRule struct {
	name    string
	p       *policy.Policy
	phrases []string
	max     bool
}

func (r *boundRule) Name() string { return r.name }

func (r *boundRule) Apply(s *State) {
	if (r.max && s.Intent.MaxPrice != nil) || (!r.max && s.Intent.MinPrice != nil) {
		return
	}
	for i := range s.Tokens {
		for _, phrase := range r.phrases {
			n := policy.PhraseLen(phrase)
			if !s.Free(i, n) || !policy.PhraseAt(s.Tokens, i, phrase) {
				continue
			}
			v, used, ok := numberAt(r.p, s, i+n)
			if !ok {
				continue
			}
			if r.max {
				s.Intent.MaxPrice = models.Price(v)
			} else {
				s.Intent.MinPrice = models.Price(v)
			}
			s.consume(i, n+used)
			return
		}
	}
}

// currencyAmountRule reads a bare amount with a currency marker ("₹150",
// "rs 80") as a budget ceiling.
type currencyAmountRule struct {
	p *policy.Policy
}

func (r *currencyAmountRule) Name() string { return "currency_amount" }

func (r *currencyAmountRule) Apply(s *State) {
	if s.Intent.HasPriceBound() {
		return
	}
	for i, tok := range s.Tokens {
		if !s.Free(i, 1) {
			continue
		}
		hasMarker := r.p.IsCurrencyMarker(tok) ||
			(isNumber(tok) && i+1 < len(s.Tokens) && r.p.IsCurrencyMarker(s.Tokens[i+1]))
		if !hasMarker {
			continue
		}
		v, used, ok := numberAt(r.p, s, i)
		if !ok {
			continue
		}
		s.Intent.MaxPrice = models.Price(v)
		s.consume(i, used)
		return
	}
}

// phraseFlagRule raises a flag when any of its phrases occurs.
type phraseFlagRule struct {
	name    string
	phrases []string
	set     func(s *State)
}

func (r *phraseFlagRule) Name() string { return r.name }

func (r *phraseFlagRule) Apply(s *State) {
	for _, phrase := range r.phrases {
		n := policy.PhraseLen(phrase)
		for i := range s.Tokens {
			if s.Free(i, n) && policy.PhraseAt(s.Tokens, i, phrase) {
				r.set(s)
				s.consume(i, n)
			}
		}
	}
}

// locationRule captures "in madhapur" style hints. "near me" is claimed by
// the business rule before this one runs.
type locationRule struct {
	p *policy.Policy
}

func (r *locationRule) Name() string { return "location_hint" }

func (r *locationRule) Apply(s *State) {
	for i, tok := range s.Tokens {
		if !contains(r.p.LocationPrepositions, tok) || !s.Free(i, 2) {
			continue
		}
		place := s.Tokens[i+1]
		if place == "me" || isNumber(place) || r.p.IsStopword(place) || r.p.IsCurrencyMarker(place) {
			continue
		}
		if _, ok := r.p.CanonicalCategory(place); ok {
			continue
		}
		if _, ok := r.p.ProductKeyword(place); ok {
			continue
		}
		s.Intent.LocationHint = place
		s.consume(i, 2)
		return
	}
}

// vocabularyRule maps known category and product words to canonical values,
// tolerating misspellings within the policy's fuzzy threshold.
type vocabularyRule struct {
	p *policy.Policy
}

func (r *vocabularyRule) Name() string { return "vocabulary" }

func (r *vocabularyRule) Apply(s *State) {
	for i, tok := range s.Tokens {
		if !s.Free(i, 1) {
			continue
		}
		if cat, ok := r.p.MatchCategory(tok); ok {
			if s.Intent.Category == "" {
				s.Intent.Category = cat
			}
			s.VocabularyHit = true
			s.consume(i, 1)
			continue
		}
		if kw, ok := r.p.MatchProduct(tok); ok {
			s.addKeyword(kw)
			s.VocabularyHit = true
			s.consume(i, 1)
		}
	}
}

// residualRule falls back to every meaningful leftover word when the
// vocabulary matched nothing.
type residualRule struct {
	p *policy.Policy
}

func (r *residualRule) Name() string { return "residual_keywords" }

func (r *residualRule) Apply(s *State) {
	if s.VocabularyHit {
		return
	}
	for i, tok := range s.Tokens {
		if !s.Free(i, 1) || len([]rune(tok)) < 2 || isNumber(tok) {
			continue
		}
		if r.p.IsStopword(tok) || r.p.IsCurrencyMarker(tok) {
			continue
		}
		s.addKeyword(tok)
		s.consume(i, 1)
	}
}

// kindRule resolves the intent kind. Business phrasing wins over every
// other signal.
type kindRule struct{}

func (kindRule) Name() string { return "kind" }

func (kindRule) Apply(s *State) {
	in := &s.Intent
	switch {
	case s.BusinessPhrase:
		in.Kind = models.IntentBusinessFinder
	case in.Category != "" && (s.WhereToBuy || (len(in.Keywords) == 0 && !in.HasPriceBound())):
		in.Kind = models.IntentCategorySearch
	case in.HasPriceBound():
		in.Kind = models.IntentPriceFilter
	default:
		in.Kind = models.IntentProductSearch
	}
}

func contains(list []string, word string) bool {
	for _, s := range list {
		if s == word {
			return true
		}
	}
	return false
}
