// internal/workers/discovery/format-response/handler.go
package formatresponse

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
)

const (
	TaskType = "format-response"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config    *Config
	formatter *Formatter
	logger    Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config:    config,
		formatter: NewFormatter(config.CurrencySymbol),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Formatter exposes the formatter for in-process callers.
func (h *Handler) Formatter() *Formatter {
	return h.formatter
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		camunda.ThrowError(client, job, "PARSE_ERROR", err.Error(), h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.ThrowError(client, job, "FORMAT_FAILED", err.Error(), h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	reply := h.formatter.StoreUnavailable(input.Intent)
	if !input.StoreUnavailable {
		reply = h.formatter.Format(input.Intent, input.Result, input.Message)
	}

	h.logger.Info("reply formatted", map[string]interface{}{
		"kind":      input.Intent.Kind,
		"products":  len(reply.Products),
		"truncated": reply.Truncated,
	})

	return &Output{Reply: reply}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
