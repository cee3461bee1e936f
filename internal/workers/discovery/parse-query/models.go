// internal/workers/discovery/parse-query/models.go
package parsequery

import "product-discovery/internal/models"

type Input struct {
	Message string `json:"message"`
}

type Output struct {
	Intent models.Intent `json:"intent"`
}
