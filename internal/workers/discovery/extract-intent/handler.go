// internal/workers/discovery/extract-intent/handler.go
package extractintent

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
	apperrors "product-discovery/internal/common/errors"
)

const (
	TaskType = "extract-intent"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Handler exposes the extractor as a job worker. Extraction failures are
// thrown as EXTRACTION_FAILED so the process can route to the parser.
type Handler struct {
	config    *Config
	extractor *Extractor
	errors    *apperrors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, completer Completer, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		extractor: NewExtractor(config, completer, l),
		errors:    apperrors.NewErrorHandler(l),
		logger:    l,
	}
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

	// The extractor applies its own deadline; this context only bounds
	// the job as a whole.
	ctx, cancel := context.WithTimeout(context.Background(), 2*h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	intent, err := h.extractor.Extract(ctx, input.Message, input.State)
	if err != nil {
		return nil, err
	}

	h.logger.Info("intent extracted", map[string]interface{}{
		"kind":     intent.Kind,
		"keywords": intent.Keywords,
	})

	return &Output{Intent: intent}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
