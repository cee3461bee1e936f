// internal/workers/discovery/query-catalog/engine.go
package querycatalog

import (
	"context"
	"time"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
)

// Engine turns intents into bounded, ordered catalog results.
type Engine struct {
	store        Store
	maxResults   int
	relaxOnEmpty bool
	logger       Logger
}

func NewEngine(store Store, maxResults int, relaxOnEmpty bool, log Logger) *Engine {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Engine{store: store, maxResults: maxResults, relaxOnEmpty: relaxOnEmpty, logger: log}
}

// MaxResults is the per-query cap.
func (e *Engine) MaxResults() int {
	return e.maxResults
}

// Query runs the intent against the store. A no_result intent never
// reaches the store. Backend failures are reported as StoreUnavailable.
func (e *Engine) Query(ctx context.Context, intent models.Intent) (models.QueryResult, error) {
	if intent.Kind == models.IntentNoResult {
		return models.QueryResult{Matches: []models.Match{}}, nil
	}

	filter := e.filterFor(intent)
	matches, truncated, err := e.run(ctx, intent.Kind, filter)
	if err != nil {
		return models.QueryResult{}, err
	}

	result := models.QueryResult{Matches: matches, Truncated: truncated}
	if !result.Empty() || !filter.hasPriceBound() || !e.relaxOnEmpty {
		return result, nil
	}

	relaxed := filter
	relaxed.MinPrice = nil
	relaxed.MaxPrice = nil
	relaxed.Offset = 0
	relaxedMatches, relaxedTruncated, err := e.run(ctx, intent.Kind, relaxed)
	if err != nil {
		return models.QueryResult{}, err
	}

	e.logger.Info("price bounds relaxed after empty result", map[string]interface{}{
		"kind":    intent.Kind,
		"matches": len(relaxedMatches),
	})
	result.Relaxed = &models.Relaxation{
		DroppedMinPrice: filter.MinPrice,
		DroppedMaxPrice: filter.MaxPrice,
		Matches:         relaxedMatches,
		Truncated:       relaxedTruncated,
	}
	return result, nil
}

func (e *Engine) filterFor(intent models.Intent) Filter {
	f := Filter{
		Keywords: intent.Keywords,
		Category: intent.Category,
		MinPrice: intent.MinPrice,
		MaxPrice: intent.MaxPrice,
		Offset:   intent.Offset,
		Limit:    e.maxResults + 1,
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if intent.Kind == models.IntentBusinessFinder {
		f.LocationHint = intent.LocationHint
	}
	return f
}

// run asks the store for one row more than the cap to detect truncation.
func (e *Engine) run(ctx context.Context, kind models.IntentKind, f Filter) ([]models.Match, bool, error) {
	start := time.Now()

	var matches []models.Match
	var err error
	if kind == models.IntentBusinessFinder {
		matches, err = e.store.Businesses(ctx, f)
	} else {
		matches, err = e.store.Products(ctx, f)
	}
	metrics.CatalogQueryDuration.WithLabelValues(e.store.Name(), string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CatalogQueryErrors.WithLabelValues(e.store.Name()).Inc()
		e.logger.Error("catalog query failed", map[string]interface{}{
			"backend": e.store.Name(),
			"kind":    kind,
			"error":   err.Error(),
		})
		return nil, false, apperrors.NewStoreUnavailableError(e.store.Name(), err)
	}

	if matches == nil {
		matches = []models.Match{}
	}
	truncated := len(matches) > e.maxResults
	if truncated {
		matches = matches[:e.maxResults]
	}
	return matches, truncated, nil
}
