package parsequery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"product-discovery/internal/models"
	"product-discovery/pkg/policy"
)

func findRule(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range DefaultRules(policy.Default()) {
		if r.Name() == name {
			return r
		}
	}
	t.Fatalf("rule %q not found", name)
	return nil
}

func TestRule_MaxPrice(t *testing.T) {
	rule := findRule(t, "max_price")

	tests := []struct {
		text string
		want *float64
	}{
		{"under 150", models.Price(150)},
		{"less than rs 99.5", models.Price(99.5)},
		{"not more than 300", models.Price(300)},
		{"up to ₹1,200", models.Price(1200)},
		{"under -5", nil},
		{"under the bridge", nil},
		{"150", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := newState(tt.text)
			rule.Apply(s)
			assert.Equal(t, tt.want, s.Intent.MaxPrice)
		})
	}
}

func TestRule_MinPriceSkipsClaimedTokens(t *testing.T) {
	s := newState("not more than 300")
	findRule(t, "max_price").Apply(s)
	findRule(t, "min_price").Apply(s)

	assert.Equal(t, models.Price(300), s.Intent.MaxPrice)
	assert.Nil(t, s.Intent.MinPrice)
}

func TestRule_NegativeAmountRecorded(t *testing.T) {
	s := newState("above -20")
	findRule(t, "min_price").Apply(s)

	assert.Nil(t, s.Intent.MinPrice)
	assert.Equal(t, []string{"-20"}, s.Rejected)
}

func TestRule_BusinessPhrase(t *testing.T) {
	rule := findRule(t, "business_phrase")

	for _, text := range []string{"who sells dal", "stores near me", "any shop nearby"} {
		s := newState(text)
		rule.Apply(s)
		assert.True(t, s.BusinessPhrase, text)
	}

	s := newState("show me rice")
	rule.Apply(s)
	assert.False(t, s.BusinessPhrase)
}

func TestRule_LocationHint(t *testing.T) {
	rule := findRule(t, "location_hint")

	tests := []struct {
		text string
		want string
	}{
		{"rice in madhapur", "madhapur"},
		{"stores near me", ""},
		{"vegetables in vegetables", ""},
		{"dal at 100", ""},
	}
	for _, tt := range tests {
		s := newState(tt.text)
		rule.Apply(s)
		assert.Equal(t, tt.want, s.Intent.LocationHint, tt.text)
	}
}

func TestRule_Vocabulary(t *testing.T) {
	s := newState("tamatar and pyaz and kirana")
	findRule(t, "vocabulary").Apply(s)

	assert.Equal(t, []string{"tomato", "onion"}, s.Intent.Keywords)
	assert.Equal(t, "Grocery", s.Intent.Category)
	assert.True(t, s.VocabularyHit)
}

func TestRule_VocabularyToleratesMisspellings(t *testing.T) {
	rule := findRule(t, "vocabulary")

	s := newState("vegitables under 50")
	rule.Apply(s)
	assert.Equal(t, "Vegetables", s.Intent.Category)
	assert.True(t, s.VocabularyHit)

	s = newState("onins and tomatos")
	rule.Apply(s)
	assert.Equal(t, []string{"onion", "tomato"}, s.Intent.Keywords)

	// Too short and too far off stay unmatched.
	s = newState("ric apples")
	rule.Apply(s)
	assert.Empty(t, s.Intent.Keywords)
	assert.False(t, s.VocabularyHit)
}

func TestRule_VocabularyFuzzyDisabled(t *testing.T) {
	p := policy.Default()
	p.Fuzzy.MinSimilarity = 0

	s := newState("vegitables")
	(&vocabularyRule{p: p}).Apply(s)
	assert.Empty(t, s.Intent.Category)
	assert.False(t, s.VocabularyHit)
}

func TestRule_ResidualSkipsWhenVocabularyMatched(t *testing.T) {
	rule := findRule(t, "residual_keywords")

	s := newState("fresh apples")
	rule.Apply(s)
	assert.Equal(t, []string{"fresh", "apples"}, s.Intent.Keywords)

	s = newState("fresh rice")
	s.VocabularyHit = true
	rule.Apply(s)
	assert.Empty(t, s.Intent.Keywords)
}

func TestRule_Kind(t *testing.T) {
	rule := findRule(t, "kind")

	tests := []struct {
		name  string
		state State
		want  models.IntentKind
	}{
		{
			name:  "business wins over price",
			state: State{BusinessPhrase: true, Intent: models.Intent{MaxPrice: models.Price(10)}},
			want:  models.IntentBusinessFinder,
		},
		{
			name:  "where to buy with category",
			state: State{WhereToBuy: true, Intent: models.Intent{Category: "Grocery", Keywords: []string{"dal"}}},
			want:  models.IntentCategorySearch,
		},
		{
			name:  "price bound",
			state: State{Intent: models.Intent{Keywords: []string{"dal"}, MinPrice: models.Price(10)}},
			want:  models.IntentPriceFilter,
		},
		{
			name:  "default",
			state: State{Intent: models.Intent{Keywords: []string{"dal"}}},
			want:  models.IntentProductSearch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			rule.Apply(&s)
			assert.Equal(t, tt.want, s.Intent.Kind)
		})
	}
}

func TestNewParserWithRules(t *testing.T) {
	p := NewParserWithRules([]Rule{&vocabularyRule{p: policy.Default()}})
	got := p.Parse("rice")

	assert.Equal(t, models.IntentProductSearch, got.Kind)
	assert.Equal(t, []string{"rice"}, got.Keywords)
}
