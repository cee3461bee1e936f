// internal/workers/discovery/format-response/formatter.go
package formatresponse

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"product-discovery/internal/models"
)

// Formatter renders query results as chat replies. It only presents what
// the result contains.
type Formatter struct {
	currency string
	tmpl     *template.Template
}

func NewFormatter(currencySymbol string) *Formatter {
	if currencySymbol == "" {
		currencySymbol = "₹"
	}
	return &Formatter{currency: currencySymbol, tmpl: parseTemplates()}
}

type line struct {
	Index      int
	HasProduct bool
	Name       string
	Price      string
	Unit       string
	Business   string
	Locality   string
	Address    string
	Phone      string
}

type view struct {
	Count    int
	Shown    int
	Lines    []line
	Category string
	Bound    string
	Dropped  string
	Subject  string
}

// Format selects a template for the intent and outcome and renders it.
// The reply text is never empty.
func (f *Formatter) Format(intent models.Intent, result models.QueryResult, text string) models.Reply {
	reply := models.Reply{
		Intent:    intent,
		Products:  []models.ProductView{},
		Truncated: result.Truncated,
	}

	if intent.Kind == models.IntentNoResult {
		reply.Reply = f.render(tmplHelp, nil)
		return reply
	}

	matches := result.Matches
	name, data := f.selectTemplate(intent, result)
	if result.Empty() && result.Relaxed != nil && len(result.Relaxed.Matches) > 0 {
		matches = result.Relaxed.Matches
		reply.Truncated = result.Relaxed.Truncated
	}

	reply.Products = productViews(matches)
	if intent.Kind == models.IntentBusinessFinder {
		reply.Businesses = businessViews(matches)
	}

	body := f.render(name, data)
	if reply.Truncated && len(matches) > 0 {
		body += "\n\n" + f.render(tmplTruncated, view{Shown: len(matches)})
	}
	if strings.TrimSpace(body) == "" {
		body = f.render(tmplHelp, nil)
	}
	reply.Reply = body
	return reply
}

// StoreUnavailable is the generic apology used when the catalog cannot be
// read. It carries no product data.
func (f *Formatter) StoreUnavailable(intent models.Intent) models.Reply {
	return models.Reply{
		Reply:    f.render(tmplStoreUnavailable, nil),
		Intent:   intent,
		Products: []models.ProductView{},
	}
}

// Help is the reply for messages the assistant cannot act on.
func (f *Formatter) Help(intent models.Intent) models.Reply {
	return models.Reply{
		Reply:    f.render(tmplHelp, nil),
		Intent:   intent,
		Products: []models.ProductView{},
	}
}

func (f *Formatter) selectTemplate(intent models.Intent, result models.QueryResult) (string, view) {
	if result.Empty() {
		if result.Relaxed != nil && len(result.Relaxed.Matches) > 0 {
			return tmplNoResultRelaxed, view{
				Count:   len(result.Relaxed.Matches),
				Lines:   f.lines(result.Relaxed.Matches),
				Dropped: f.bound(result.Relaxed.DroppedMinPrice, result.Relaxed.DroppedMaxPrice),
			}
		}
		return tmplNoResult, view{
			Subject:  subject(intent),
			Category: intent.Category,
			Bound:    f.bound(intent.MinPrice, intent.MaxPrice),
		}
	}

	v := view{
		Count:    len(result.Matches),
		Lines:    f.lines(result.Matches),
		Category: intent.Category,
		Bound:    f.bound(intent.MinPrice, intent.MaxPrice),
	}
	switch {
	case intent.Kind == models.IntentBusinessFinder:
		return tmplBusinessList, v
	case len(result.Matches) == 1:
		return tmplSingleProduct, v
	case intent.Kind == models.IntentCategorySearch && intent.Category != "" && !intent.HasPriceBound():
		return tmplCategory, v
	case intent.HasPriceBound():
		return tmplPriceList, v
	default:
		return tmplProductList, v
	}
}

func (f *Formatter) render(name string, data interface{}) string {
	var buf bytes.Buffer
	if err := f.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func (f *Formatter) lines(matches []models.Match) []line {
	out := make([]line, 0, len(matches))
	for i, m := range matches {
		l := line{
			Index:    i + 1,
			Business: m.Business.Name,
			Locality: Locality(m.Business.Address),
			Address:  m.Business.Address,
			Phone:    m.Business.Phone,
		}
		if m.Product != nil {
			l.HasProduct = true
			l.Name = m.Product.Name
			l.Price = f.Money(m.Product.Price)
			l.Unit = m.Product.Unit
		}
		out = append(out, l)
	}
	return out
}

// bound describes a price range, e.g. "under ₹150".
func (f *Formatter) bound(minPrice, maxPrice *float64) string {
	switch {
	case minPrice != nil && maxPrice != nil:
		return fmt.Sprintf("between %s and %s", f.Money(*minPrice), f.Money(*maxPrice))
	case maxPrice != nil:
		return "under " + f.Money(*maxPrice)
	case minPrice != nil:
		return "above " + f.Money(*minPrice)
	default:
		return ""
	}
}

// Money renders a price with the currency symbol, without decimals for
// whole amounts.
func (f *Formatter) Money(v float64) string {
	if v == math.Trunc(v) {
		return f.currency + strconv.FormatFloat(v, 'f', 0, 64)
	}
	return f.currency + strconv.FormatFloat(v, 'f', 2, 64)
}

// Locality is the first comma-separated part of an address.
func Locality(address string) string {
	first := strings.TrimSpace(strings.SplitN(address, ",", 2)[0])
	if first == "" {
		return strings.TrimSpace(address)
	}
	return first
}

func subject(intent models.Intent) string {
	var s string
	switch {
	case len(intent.Keywords) > 0:
		s = strings.Join(intent.Keywords, " ")
	case intent.Category != "":
		s = strings.ToLower(intent.Category)
	}
	if intent.Kind == models.IntentBusinessFinder {
		if s == "" {
			return "any matching stores"
		}
		return "any stores for " + s
	}
	if s == "" {
		return "that"
	}
	return s
}

func productViews(matches []models.Match) []models.ProductView {
	out := make([]models.ProductView, 0, len(matches))
	for _, m := range matches {
		if m.Product == nil {
			continue
		}
		out = append(out, models.ProductView{
			Name:     m.Product.Name,
			Price:    m.Product.Price,
			Unit:     m.Product.Unit,
			Category: m.Product.Category,
			Business: models.NewBusinessView(m.Business),
		})
	}
	return out
}

func businessViews(matches []models.Match) []models.BusinessView {
	out := make([]models.BusinessView, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := m.Business.ID
		if key == "" {
			key = m.Business.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, models.NewBusinessView(m.Business))
	}
	return out
}
