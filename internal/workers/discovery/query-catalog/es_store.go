// internal/workers/discovery/query-catalog/es_store.go
package querycatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/models"
)

// ESStore searches a denormalised products index where each document
// embeds its business.
type ESStore struct {
	client *elasticsearch.Client
	index  string
}

func NewESStore(client *elasticsearch.Client, index string) *ESStore {
	return &ESStore{client: client, index: index}
}

func (s *ESStore) Name() string {
	return "elasticsearch"
}

type businessDocument struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type productDocument struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Price    float64          `json:"price"`
	Unit     string           `json:"unit"`
	Category string           `json:"category"`
	Business businessDocument `json:"business"`
}

func (d productDocument) match() models.Match {
	return models.Match{
		Product: &models.Product{
			ID:         d.ID,
			Name:       d.Name,
			Price:      d.Price,
			Unit:       d.Unit,
			Category:   d.Category,
			BusinessID: d.Business.ID,
		},
		Business: models.Business{
			ID:       d.Business.ID,
			Name:     d.Business.Name,
			Category: d.Business.Category,
			Phone:    d.Business.Phone,
			Address:  d.Business.Address,
		},
	}
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"id": {"type": "keyword"},
			"name": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"price": {"type": "double"},
			"unit": {"type": "keyword"},
			"category": {"type": "keyword"},
			"business": {
				"properties": {
					"id": {"type": "keyword"},
					"name": {"type": "keyword"},
					"category": {"type": "keyword"},
					"phone": {"type": "keyword"},
					"address": {"type": "keyword"}
				}
			}
		}
	}
}`

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func wildcard(field, keyword string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{
				"value":            "*" + wildcardEscaper.Replace(strings.ToLower(keyword)) + "*",
				"case_insensitive": true,
			},
		},
	}
}

// constant pins a clause to a fixed score so documents in the same
// relevance tier tie exactly and fall through to the id sort.
func constant(query map[string]interface{}, score float64) map[string]interface{} {
	return map[string]interface{}{
		"constant_score": map[string]interface{}{"filter": query, "boost": score},
	}
}

// Relevance tiers for keyword matches.
const (
	tierWholeWord = 3
	tierSubstring = 2
	tierCategory  = 1
)

// keywordQuery scores each document by its best tier across keywords.
// In business mode any product match outranks a business-only match, so
// collapse keeps a matching product when the business has one.
func keywordQuery(keywords []string, businesses bool) map[string]interface{} {
	queries := []interface{}{}
	for _, kw := range keywords {
		if businesses {
			queries = append(queries,
				constant(wildcard("name.raw", kw), tierSubstring),
				constant(wildcard("category", kw), tierSubstring),
				constant(wildcard("business.name", kw), tierCategory),
				constant(wildcard("business.address", kw), tierCategory),
				constant(wildcard("business.category", kw), tierCategory),
			)
			continue
		}
		queries = append(queries,
			constant(map[string]interface{}{"match_phrase": map[string]interface{}{"name": kw}}, tierWholeWord),
			constant(wildcard("name.raw", kw), tierSubstring),
			constant(wildcard("category", kw), tierCategory),
		)
	}
	return map[string]interface{}{"dis_max": map[string]interface{}{"queries": queries, "tie_breaker": 0}}
}

// productMatches mirrors the keyword predicate the SQL store applies to a
// business's paired product.
func productMatches(d productDocument, keywords []string) bool {
	name, category := strings.ToLower(d.Name), strings.ToLower(d.Category)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(name, kw) || strings.Contains(category, kw) {
			return true
		}
	}
	return false
}

func priceRange(f Filter) map[string]interface{} {
	bounds := map[string]interface{}{}
	if f.MinPrice != nil {
		bounds["gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		bounds["lte"] = *f.MaxPrice
	}
	return map[string]interface{}{"range": map[string]interface{}{"price": bounds}}
}

// buildSearch translates a filter into a search body. User text only ever
// appears as JSON string values.
func buildSearch(f Filter, businesses bool) map[string]interface{} {
	filters := []interface{}{}
	if f.Category != "" {
		field := "category"
		if businesses {
			field = "business.category"
		}
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				field: map[string]interface{}{"value": f.Category, "case_insensitive": true},
			},
		})
	}
	if f.hasPriceBound() {
		filters = append(filters, priceRange(f))
	}
	if businesses && f.LocationHint != "" {
		filters = append(filters, wildcard("business.address", f.LocationHint))
	}

	boolQuery := map[string]interface{}{"filter": filters}
	if len(f.Keywords) > 0 {
		// Business fields only widen the match when no price bound applies.
		boolQuery["must"] = []interface{}{keywordQuery(f.Keywords, businesses && !f.hasPriceBound())}
	}

	body := map[string]interface{}{
		"query":            map[string]interface{}{"bool": boolQuery},
		"from":             f.Offset,
		"size":             f.Limit,
		"track_total_hits": false,
	}

	switch {
	case businesses && f.hasPriceBound():
		body["sort"] = []interface{}{map[string]string{"price": "asc"}, map[string]string{"id": "asc"}}
	case businesses:
		body["sort"] = []interface{}{
			map[string]string{"business.id": "asc"},
			map[string]string{"_score": "desc"},
			map[string]string{"price": "asc"},
		}
	case f.hasPriceBound():
		body["sort"] = []interface{}{map[string]string{"price": "asc"}, map[string]string{"id": "asc"}}
	case len(f.Keywords) > 0:
		body["sort"] = []interface{}{map[string]string{"_score": "desc"}, map[string]string{"id": "asc"}}
	default:
		body["sort"] = []interface{}{map[string]string{"id": "asc"}}
	}

	if businesses {
		body["collapse"] = map[string]interface{}{"field": "business.id"}
	}
	return body
}

func (s *ESStore) search(ctx context.Context, body map[string]interface{}) ([]productDocument, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search %s failed: %s", s.index, res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source productDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]productDocument, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func (s *ESStore) Products(ctx context.Context, f Filter) ([]models.Match, error) {
	docs, err := s.search(ctx, buildSearch(f, false))
	if err != nil {
		return nil, err
	}
	matches := make([]models.Match, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, d.match())
	}
	return matches, nil
}

// Businesses collapses hits on business id. Only businesses that list at
// least one product are indexed.
func (s *ESStore) Businesses(ctx context.Context, f Filter) ([]models.Match, error) {
	docs, err := s.search(ctx, buildSearch(f, true))
	if err != nil {
		return nil, err
	}
	matches := make([]models.Match, 0, len(docs))
	for _, d := range docs {
		m := d.match()
		switch {
		case !f.hasProductFilter():
			m.Product = nil
		case !f.hasPriceBound() && !productMatches(d, f.Keywords):
			// Only the business matched the keyword.
			m.Product = nil
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// EnsureIndex creates the products index with its mapping when missing.
func (s *ESStore) EnsureIndex(ctx context.Context) error {
	exists := esapi.IndicesExistsRequest{Index: []string{s.index}}
	res, err := exists.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	create := esapi.IndicesCreateRequest{
		Index: s.index,
		Body:  strings.NewReader(indexMapping),
	}
	res, err = create.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s failed: %s", s.index, res.String())
	}
	return nil
}

// IndexCatalog bulk-loads products joined with their businesses.
func (s *ESStore) IndexCatalog(ctx context.Context, businesses []models.Business, products []models.Product) error {
	if err := s.EnsureIndex(ctx); err != nil {
		return err
	}

	byID := make(map[string]models.Business, len(businesses))
	for _, b := range businesses {
		byID[b.ID] = b
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		b, ok := byID[p.BusinessID]
		if !ok {
			return fmt.Errorf("product %s references unknown business %s", p.ID, p.BusinessID)
		}
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": s.index, "_id": p.ID}}
		doc := productDocument{
			ID: p.ID, Name: p.Name, Price: p.Price, Unit: p.Unit, Category: p.Category,
			Business: businessDocument{ID: b.ID, Name: b.Name, Category: b.Category, Phone: b.Phone, Address: b.Address},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	req := esapi.BulkRequest{
		Index:   s.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("bulk index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index %s failed: %s", s.index, res.String())
	}

	var summary struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&summary); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if summary.Errors {
		return fmt.Errorf("bulk index %s reported item errors", s.index)
	}
	return nil
}
