// internal/workers/discovery/handle-message/logging.go
package handlemessage

import (
	"product-discovery/internal/common/logger"
	extractintent "product-discovery/internal/workers/discovery/extract-intent"
	normalizeintent "product-discovery/internal/workers/discovery/normalize-intent"
	querycatalog "product-discovery/internal/workers/discovery/query-catalog"
)

// Logger adapters for the stages that declare their own Logger interfaces.
type extractLoggerAdapter struct {
	logger.Logger
}

func (a *extractLoggerAdapter) With(fields map[string]interface{}) extractintent.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}

type normalizeLoggerAdapter struct {
	logger.Logger
}

func (a *normalizeLoggerAdapter) With(fields map[string]interface{}) normalizeintent.Logger {
	return &normalizeLoggerAdapter{a.Logger.With(fields)}
}

type catalogLoggerAdapter struct {
	logger.Logger
}

func (a *catalogLoggerAdapter) With(fields map[string]interface{}) querycatalog.Logger {
	return &catalogLoggerAdapter{a.Logger.With(fields)}
}

// CatalogLogger adapts log for catalog stores built outside the pipeline.
func CatalogLogger(log logger.Logger) querycatalog.Logger {
	return &catalogLoggerAdapter{log}
}
