// internal/workers/discovery/query-catalog/handler.go
package querycatalog

import (
	"context"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
	apperrors "product-discovery/internal/common/errors"
)

const (
	TaskType = "query-catalog"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	engine *Engine
	errors *apperrors.ErrorHandler
	logger Logger
}

func NewHandler(config *Config, store Store, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config: config,
		engine: NewEngine(store, config.MaxResults, config.RelaxOnEmpty, l),
		errors: apperrors.NewErrorHandler(l),
		logger: l,
	}
}

// Engine exposes the query engine for in-process callers.
func (h *Handler) Engine() *Engine {
	return h.engine
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.engine.Query(ctx, input.Intent)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError(h.engine.store.Name(), err)
		}
		return nil, err
	}

	h.logger.Info("catalog queried", map[string]interface{}{
		"kind":      input.Intent.Kind,
		"matches":   len(result.Matches),
		"truncated": result.Truncated,
		"relaxed":   result.Relaxed != nil,
	})

	return &Output{Result: result}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
