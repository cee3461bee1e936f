// internal/workers/discovery/extract-intent/extractor.go
package extractintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/common/validation"
	"product-discovery/internal/models"
)

const systemInstruction = `You are the intent extractor of a product discovery assistant for local grocery and vegetable stores.
Convert the user's message into one JSON object and output nothing else.

Fields:
- kind: one of "product_search", "price_filter", "category_search", "business_finder", "no_result".
- keywords: product words the user is looking for, lower case, e.g. ["rice"]. Use [] when none.
- category: "Grocery", "Vegetables" or null.
- max_price: number or null. Set for "under", "below", "less than", "within", "up to".
- min_price: number or null. Set for "above", "over", "more than".
- location_hint: a locality named by the user (e.g. "madhapur") or null. "near me" is not a locality.
- confidence: number between 0 and 1.

Rules:
- Questions about who sells something or about stores and shops are "business_finder", even when a product is named ("who sells dal" => business_finder, keywords ["dal"]).
- "where can I buy vegetables" => category_search with category "Vegetables".
- A price bound with no other filter => price_filter.
- Greetings or messages unrelated to shopping => no_result.
- Never invent products, prices or stores.`

var intentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"kind", "keywords"},
	"properties": map[string]interface{}{
		"kind": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{
				string(models.IntentProductSearch),
				string(models.IntentPriceFilter),
				string(models.IntentCategorySearch),
				string(models.IntentBusinessFinder),
				string(models.IntentNoResult),
			},
		},
		"keywords": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"category":      map[string]interface{}{"type": []interface{}{"string", "null"}},
		"max_price":     map[string]interface{}{"type": []interface{}{"number", "string", "null"}},
		"min_price":     map[string]interface{}{"type": []interface{}{"number", "string", "null"}},
		"location_hint": map[string]interface{}{"type": []interface{}{"string", "null"}},
		"confidence": map[string]interface{}{
			"type":    []interface{}{"number", "null"},
			"minimum": 0,
			"maximum": 1,
		},
	},
}

var compiledIntentSchema = validation.MustCompile(intentSchema)

// Extractor is the remote language extraction stage. Every failure is
// reported as an ExtractionFailed error so the caller can fall back.
type Extractor struct {
	completer Completer
	config    *Config
	logger    Logger
}

// NewExtractor builds an extractor. A nil completer yields an extractor
// that always fails with reason "disabled".
func NewExtractor(config *Config, completer Completer, log Logger) *Extractor {
	return &Extractor{completer: completer, config: config, logger: log}
}

// Enabled reports whether remote calls will be attempted.
func (e *Extractor) Enabled() bool {
	return e != nil && e.completer != nil && e.config.Enabled
}

// Extract runs one bounded remote call and validates its answer.
func (e *Extractor) Extract(ctx context.Context, text string, state models.ConversationState) (models.Intent, error) {
	if !e.Enabled() {
		metrics.ExtractionAttempts.WithLabelValues("failed", ReasonDisabled).Inc()
		return models.Intent{}, apperrors.NewExtractionFailedError(ReasonDisabled, nil)
	}

	start := time.Now()
	raw, err := e.complete(ctx, CompletionRequest{
		System: systemInstruction,
		User:   userMessage(text, state),
		Schema: intentSchema,
	})
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return models.Intent{}, e.fail(classify(err), err)
	}

	intent, reason, err := decodeIntent(raw, e.config.MinConfidence)
	if err != nil {
		return models.Intent{}, e.fail(reason, err)
	}

	metrics.ExtractionAttempts.WithLabelValues("success", "").Inc()
	return intent, nil
}

func (e *Extractor) fail(reason string, err error) error {
	metrics.ExtractionAttempts.WithLabelValues("failed", reason).Inc()
	e.logger.Warn("language extraction failed", map[string]interface{}{
		"reason": reason,
		"error":  err.Error(),
	})
	return apperrors.NewExtractionFailedError(reason, err)
}

// complete enforces the timeout itself so a completer that ignores its
// context still cannot hold the caller past the deadline.
func (e *Extractor) complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := e.completer.Complete(ctx, req)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func classify(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.As(err, &statusErr):
		return ReasonStatus
	default:
		return ReasonTransport
	}
}

func userMessage(text string, state models.ConversationState) string {
	if state.LastIntent == nil {
		return text
	}
	prev, err := json.Marshal(state.LastIntent)
	if err != nil {
		return text
	}
	return fmt.Sprintf("%s\n\n(Previous request for context: %s)", text, prev)
}

// stripFences removes a surrounding markdown code block, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func decodeIntent(raw string, minConfidence float64) (models.Intent, string, error) {
	body := []byte(stripFences(raw))

	if result := compiledIntentSchema.ValidateJSON(body); !result.Valid {
		reason := ReasonSchema
		if len(result.Errors) > 0 && result.Errors[0].Code == "MALFORMED_JSON" {
			reason = ReasonMalformed
		}
		return models.Intent{}, reason, errors.New(result.Error())
	}

	var doc llmIntent
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.Intent{}, ReasonMalformed, err
	}

	if doc.Confidence != nil && *doc.Confidence < minConfidence {
		return models.Intent{}, ReasonLowConfidence,
			fmt.Errorf("confidence %.2f below %.2f", *doc.Confidence, minConfidence)
	}

	maxPrice, err := parsePrice(doc.MaxPrice)
	if err != nil {
		return models.Intent{}, ReasonNumber, fmt.Errorf("max_price: %w", err)
	}
	minPrice, err := parsePrice(doc.MinPrice)
	if err != nil {
		return models.Intent{}, ReasonNumber, fmt.Errorf("min_price: %w", err)
	}

	intent := models.Intent{
		Kind:     models.IntentKind(doc.Kind),
		Keywords: doc.Keywords,
		MaxPrice: maxPrice,
		MinPrice: minPrice,
		Source:   models.SourceLLM,
	}
	if intent.Keywords == nil {
		intent.Keywords = []string{}
	}
	if doc.Category != nil {
		intent.Category = *doc.Category
	}
	if doc.LocationHint != nil {
		intent.LocationHint = *doc.LocationHint
	}
	return intent, "", nil
}

// parsePrice accepts numbers and numeric strings ("150", "Rs. 150",
// "₹1,200"). Anything else is an error, never a panic.
func parsePrice(v interface{}) (*float64, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return models.Price(p), nil
	case string:
		s := strings.TrimSpace(strings.ToLower(p))
		if s == "" || s == "null" || s == "none" {
			return nil, nil
		}
		for _, marker := range []string{"₹", "rs.", "rs", "inr"} {
			s = strings.TrimPrefix(s, marker)
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", p)
		}
		return models.Price(f), nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}
