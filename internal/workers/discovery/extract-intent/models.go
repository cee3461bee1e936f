// internal/workers/discovery/extract-intent/models.go
package extractintent

import "product-discovery/internal/models"

type Input struct {
	Message string                   `json:"message"`
	State   models.ConversationState `json:"state"`
}

type Output struct {
	Intent models.Intent `json:"intent"`
}

// Failure reasons reported with ExtractionFailed.
const (
	ReasonDisabled      = "disabled"
	ReasonTimeout       = "timeout"
	ReasonCanceled      = "canceled"
	ReasonTransport     = "transport"
	ReasonStatus        = "status"
	ReasonMalformed     = "malformed"
	ReasonSchema        = "schema"
	ReasonNumber        = "number"
	ReasonLowConfidence = "low_confidence"
)

// llmIntent is the document the model is asked to produce.
type llmIntent struct {
	Kind         string      `json:"kind"`
	Keywords     []string    `json:"keywords"`
	Category     *string     `json:"category"`
	MaxPrice     interface{} `json:"max_price"`
	MinPrice     interface{} `json:"min_price"`
	LocationHint *string     `json:"location_hint"`
	Confidence   *float64    `json:"confidence"`
}
