// internal/workers/discovery/normalize-intent/models.go
package normalizeintent

import "product-discovery/internal/models"

// Continuation names the follow-up a message was resolved as.
type Continuation string

const (
	ContinuationNone    Continuation = ""
	ContinuationCheaper Continuation = "cheaper"
	ContinuationMore    Continuation = "more"
)

type Input struct {
	Message string                   `json:"message"`
	Intent  models.Intent            `json:"intent"`
	State   models.ConversationState `json:"state"`
}

type Output struct {
	Intent       models.Intent `json:"intent"`
	Continuation Continuation  `json:"continuation,omitempty"`
	Clamped      []string      `json:"clamped,omitempty"`
}
