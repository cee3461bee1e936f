// internal/workers/discovery/extract-intent/suggest.go
package extractintent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/validation"
)

const suggestInstruction = `You are a product discovery assistant for local stores in Hyderabad.
The catalog has grocery and vegetable products such as rice, dal, atta, oil, tomatoes and onions.
Generate 4 to 6 short, natural example questions a user might ask.
Return a JSON object of the form {"questions": ["..."]}.`

var suggestionSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"questions"},
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type":     "array",
			"minItems": 4,
			"maxItems": 6,
			"items":    map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 120},
		},
	},
}

var compiledSuggestionSchema = validation.MustCompile(suggestionSchema)

// Suggest asks the model for example queries, within the same timeout as
// extraction. Callers fall back to a static list on any error.
func (e *Extractor) Suggest(ctx context.Context) ([]string, error) {
	if !e.Enabled() || !e.config.SuggestionsEnabled {
		return nil, apperrors.NewExtractionFailedError(ReasonDisabled, nil)
	}

	raw, err := e.complete(ctx, CompletionRequest{
		System: suggestInstruction,
		User:   "Suggest example questions for the chatbot.",
		Schema: suggestionSchema,
	})
	if err != nil {
		return nil, apperrors.NewExtractionFailedError(classify(err), err)
	}

	body := []byte(stripFences(raw))
	if result := compiledSuggestionSchema.ValidateJSON(body); !result.Valid {
		return nil, apperrors.NewExtractionFailedError(ReasonSchema, errors.New(result.Error()))
	}

	var doc struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.NewExtractionFailedError(ReasonMalformed, err)
	}

	out := make([]string, 0, len(doc.Questions))
	for _, q := range doc.Questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) < 4 {
		return nil, apperrors.NewExtractionFailedError(ReasonSchema, errors.New("fewer than 4 usable questions"))
	}
	return out, nil
}
