// internal/workers/discovery/format-response/handler_test.go
package formatresponse

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-discovery/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// ==========================
// Test Helper Functions
// ==========================

var (
	saiKirana   = models.Business{ID: "b1", Name: "Sai Kirana Store", Category: "Grocery", Address: "Madhapur, Hyderabad", Phone: "9876543210"}
	freshMart   = models.Business{ID: "b2", Name: "Fresh Mart Vegetables", Category: "Vegetables", Address: "Gachibowli, Hyderabad", Phone: "9876543211"}
	quality     = models.Business{ID: "b3", Name: "Quality Grocers", Category: "Grocery", Address: "Kondapur, Hyderabad", Phone: "9876543212"}
	basmati     = &models.Product{ID: "1", Name: "Basmati Rice", Price: 120, Unit: "kg", Category: "Grocery", BusinessID: "b1"}
	tomatoes    = &models.Product{ID: "2", Name: "Fresh Tomatoes", Price: 40, Unit: "kg", Category: "Vegetables", BusinessID: "b2"}
	sunflower   = &models.Product{ID: "3", Name: "Sunflower Oil", Price: 180, Unit: "liter", Category: "Grocery", BusinessID: "b1"}
	onions      = &models.Product{ID: "5", Name: "Fresh Onions", Price: 35, Unit: "kg", Category: "Vegetables", BusinessID: "b2"}
	toorDal     = &models.Product{ID: "6", Name: "Toor Dal", Price: 140, Unit: "kg", Category: "Grocery", BusinessID: "b3"}
	vegetables2 = []models.Match{{Product: onions, Business: freshMart}, {Product: tomatoes, Business: freshMart}}
)

func newFormatter() *Formatter {
	return NewFormatter("₹")
}

// ==========================
// Core Functionality Tests
// ==========================

func TestFormatter_Templates(t *testing.T) {
	tests := []struct {
		name   string
		intent models.Intent
		result models.QueryResult
		want   string
	}{
		{
			name:   "single product",
			intent: models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"rice"}},
			result: models.QueryResult{Matches: []models.Match{{Product: basmati, Business: saiKirana}}},
			want: "Found 1 product:\n" +
				"Basmati Rice - ₹120/kg\n" +
				"Available at: Sai Kirana Store, Madhapur\n" +
				"Call: 9876543210",
		},
		{
			name:   "product list",
			intent: models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"fresh"}},
			result: models.QueryResult{Matches: vegetables2},
			want: "Found 2 products:\n\n" +
				"1. Fresh Onions - ₹35/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211\n\n" +
				"2. Fresh Tomatoes - ₹40/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211",
		},
		{
			name:   "price list",
			intent: models.Intent{Kind: models.IntentPriceFilter, MaxPrice: models.Price(45)},
			result: models.QueryResult{Matches: vegetables2},
			want: "Found 2 products under ₹45:\n\n" +
				"1. Fresh Onions - ₹35/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211\n\n" +
				"2. Fresh Tomatoes - ₹40/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211",
		},
		{
			name:   "category",
			intent: models.Intent{Kind: models.IntentCategorySearch, Category: "Vegetables"},
			result: models.QueryResult{Matches: vegetables2},
			want: "Found 2 products in vegetables:\n\n" +
				"1. Fresh Onions - ₹35/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211\n\n" +
				"2. Fresh Tomatoes - ₹40/kg\nFresh Mart Vegetables, Gachibowli\nPhone: 9876543211",
		},
		{
			name:   "business list with product",
			intent: models.Intent{Kind: models.IntentBusinessFinder, Keywords: []string{"dal"}},
			result: models.QueryResult{Matches: []models.Match{{Product: toorDal, Business: quality}}},
			want: "Found 1 store:\n\n" +
				"1. Quality Grocers - Kondapur, Hyderabad\nToor Dal - ₹140/kg\nPhone: 9876543212",
		},
		{
			name:   "business list without products",
			intent: models.Intent{Kind: models.IntentBusinessFinder, Category: "Grocery"},
			result: models.QueryResult{Matches: []models.Match{{Business: saiKirana}, {Business: quality}}},
			want: "Found 2 grocery stores:\n\n" +
				"1. Sai Kirana Store - Madhapur, Hyderabad\nPhone: 9876543210\n\n" +
				"2. Quality Grocers - Kondapur, Hyderabad\nPhone: 9876543212",
		},
		{
			name: "relaxed no result",
			intent: models.Intent{
				Kind: models.IntentPriceFilter, Keywords: []string{"oil"}, MaxPrice: models.Price(100),
			},
			result: models.QueryResult{
				Matches: []models.Match{},
				Relaxed: &models.Relaxation{
					DroppedMaxPrice: models.Price(100),
					Matches:         []models.Match{{Product: sunflower, Business: saiKirana}},
				},
			},
			want: "No matches under ₹100, but here's what's available:\n\n" +
				"1. Sunflower Oil - ₹180/liter\nSai Kirana Store, Madhapur\nPhone: 9876543210",
		},
		{
			name:   "plain no result",
			intent: models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"unicorn", "horns"}},
			result: models.QueryResult{Matches: []models.Match{}},
			want:   "Sorry, I couldn't find unicorn horns.\nWould you like to see all available products?",
		},
		{
			name:   "no result with category and bound",
			intent: models.Intent{Kind: models.IntentPriceFilter, Category: "Vegetables", MinPrice: models.Price(10), MaxPrice: models.Price(20)},
			result: models.QueryResult{},
			want:   "Sorry, I couldn't find vegetables between ₹10 and ₹20.\nWould you like to see all available vegetables?",
		},
		{
			name:   "no stores",
			intent: models.Intent{Kind: models.IntentBusinessFinder, Keywords: []string{"saffron"}},
			result: models.QueryResult{},
			want:   "Sorry, I couldn't find any stores for saffron.\nWould you like to see all available products?",
		},
	}

	f := newFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := f.Format(tt.intent, tt.result, "")
			assert.Equal(t, tt.want, reply.Reply)
		})
	}
}

func TestFormatter_HelpForNoResultIntent(t *testing.T) {
	reply := newFormatter().Format(models.Intent{Kind: models.IntentNoResult}, models.QueryResult{}, "hello")

	assert.Contains(t, reply.Reply, "I can help you find grocery and vegetable products")
	assert.NotNil(t, reply.Products)
	assert.Empty(t, reply.Products)
}

func TestFormatter_StructuredProducts(t *testing.T) {
	reply := newFormatter().Format(
		models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"fresh"}},
		models.QueryResult{Matches: vegetables2},
		"fresh",
	)

	require.Len(t, reply.Products, 2)
	assert.Equal(t, models.ProductView{
		Name:     "Fresh Onions",
		Price:    35,
		Unit:     "kg",
		Category: "Vegetables",
		Business: models.BusinessView{Name: "Fresh Mart Vegetables", Phone: "9876543211", Address: "Gachibowli, Hyderabad"},
	}, reply.Products[0])
	assert.Nil(t, reply.Businesses)
}

func TestFormatter_BusinessesAreDistinct(t *testing.T) {
	reply := newFormatter().Format(
		models.Intent{Kind: models.IntentBusinessFinder, Keywords: []string{"fresh"}},
		models.QueryResult{Matches: vegetables2},
		"",
	)

	require.Len(t, reply.Businesses, 1)
	assert.Equal(t, "Fresh Mart Vegetables", reply.Businesses[0].Name)
	assert.Len(t, reply.Products, 2)
}

func TestFormatter_RelaxedRepliesCarryRelaxedProducts(t *testing.T) {
	reply := newFormatter().Format(
		models.Intent{Kind: models.IntentPriceFilter, MinPrice: models.Price(500)},
		models.QueryResult{Relaxed: &models.Relaxation{
			DroppedMinPrice: models.Price(500),
			Matches:         []models.Match{{Product: basmati, Business: saiKirana}},
			Truncated:       true,
		}},
		"",
	)

	assert.Contains(t, reply.Reply, "No matches above ₹500")
	assert.Contains(t, reply.Reply, `Say "show more"`)
	assert.True(t, reply.Truncated)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "Basmati Rice", reply.Products[0].Name)
}

func TestFormatter_TruncationFooter(t *testing.T) {
	matches := make([]models.Match, 0, 10)
	for i := 0; i < 10; i++ {
		matches = append(matches, models.Match{
			Product:  &models.Product{ID: fmt.Sprint(i), Name: fmt.Sprintf("Rice %d", i), Price: 50, Unit: "kg"},
			Business: saiKirana,
		})
	}

	reply := newFormatter().Format(
		models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"rice"}},
		models.QueryResult{Matches: matches, Truncated: true},
		"",
	)

	assert.True(t, reply.Truncated)
	assert.Contains(t, reply.Reply, "Found 10 products:")
	assert.Contains(t, reply.Reply, "\n\nShowing the first 10 results. Say \"show more\" to see the rest.")
	assert.Len(t, reply.Products, 10)
}

func TestFormatter_NeverInventsProducts(t *testing.T) {
	f := newFormatter()
	intents := []models.Intent{
		{Kind: models.IntentProductSearch, Keywords: []string{"rice"}},
		{Kind: models.IntentPriceFilter, MaxPrice: models.Price(10)},
		{Kind: models.IntentCategorySearch, Category: "Grocery"},
		{Kind: models.IntentBusinessFinder},
		{Kind: models.IntentNoResult},
	}
	for _, intent := range intents {
		reply := f.Format(intent, models.QueryResult{Matches: []models.Match{}}, "")
		assert.NotEmpty(t, reply.Reply, "kind %s", intent.Kind)
		assert.Empty(t, reply.Products, "kind %s", intent.Kind)
		assert.NotContains(t, reply.Reply, "₹0")
	}
}

func TestFormatter_StoreUnavailable(t *testing.T) {
	intent := models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"rice"}}
	reply := newFormatter().StoreUnavailable(intent)

	assert.Contains(t, reply.Reply, "trouble reaching the product catalog")
	assert.Empty(t, reply.Products)
	assert.Equal(t, intent, reply.Intent)
}

func TestMoneyAndLocality(t *testing.T) {
	f := NewFormatter("Rs.")
	assert.Equal(t, "Rs.120", f.Money(120))
	assert.Equal(t, "Rs.99.50", f.Money(99.5))
	assert.Equal(t, "₹5", NewFormatter("").Money(5))
	assert.Equal(t, "Rs.100000000000000000000", f.Money(1e20), "whole amounts beyond int64 stay whole")
	assert.Equal(t, "Rs.9223372036854775808", f.Money(math.Pow(2, 63)))

	assert.Equal(t, "Madhapur", Locality("Madhapur, Hyderabad"))
	assert.Equal(t, "Hyderabad", Locality("Hyderabad"))
	assert.Equal(t, ", Hyderabad", Locality(", Hyderabad"))
	assert.Equal(t, "", Locality(""))
}

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler(LoadConfig(), NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Message: "rice",
		Intent:  models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"rice"}},
		Result:  models.QueryResult{Matches: []models.Match{{Product: basmati, Business: saiKirana}}},
	})
	require.NoError(t, err)
	assert.Contains(t, output.Reply.Reply, "Basmati Rice - ₹120/kg")
	assert.Len(t, output.Reply.Products, 1)

	output, err = handler.Execute(context.Background(), &Input{
		Intent:           models.Intent{Kind: models.IntentProductSearch},
		Result:           models.QueryResult{Matches: []models.Match{{Product: basmati, Business: saiKirana}}},
		StoreUnavailable: true,
	})
	require.NoError(t, err)
	assert.Contains(t, output.Reply.Reply, "Please try again")
	assert.Empty(t, output.Reply.Products)
}

func BenchmarkFormatter_Format(b *testing.B) {
	f := newFormatter()
	intent := models.Intent{Kind: models.IntentProductSearch, Keywords: []string{"fresh"}}
	result := models.QueryResult{Matches: vegetables2}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Format(intent, result, "")
	}
}
