// internal/workers/discovery/format-response/models.go
package formatresponse

import "product-discovery/internal/models"

type Input struct {
	Message string             `json:"message"`
	Intent  models.Intent      `json:"intent"`
	Result  models.QueryResult `json:"result"`
	// StoreUnavailable selects the apology reply; Result is ignored.
	StoreUnavailable bool `json:"storeUnavailable,omitempty"`
}

type Output struct {
	Reply models.Reply `json:"reply"`
}
