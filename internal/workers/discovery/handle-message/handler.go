// internal/workers/discovery/handle-message/handler.go
package handlemessage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
	"product-discovery/internal/common/config"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/metrics"
)

const TaskType = "handle-product-query"

type Handler struct {
	config  *Config
	logger  logger.Logger
	service *Service
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	// Service is reused when set, so the HTTP surface and the job worker
	// share one conversation memory.
	Service      *Service
	Dependencies ServiceDependencies
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := opts.CustomConfig
	if workerConfig == nil {
		workerConfig = ConfigFromApp(opts.AppConfig, opts.Dependencies.Policy)
	}
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewZapAdapter(logger.New("info", "json"))
	}

	service := opts.Service
	if service == nil {
		deps := opts.Dependencies
		if deps.Logger == nil {
			deps.Logger = loggerInstance
		}
		var err error
		service, err = NewService(deps, workerConfig)
		if err != nil {
			return nil, err
		}
	}

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance.With(map[string]interface{}{"taskType": TaskType}),
		service: service,
		errors:  apperrors.NewErrorHandler(loggerInstance),
	}, nil
}

func (h *Handler) Service() *Service {
	return h.service
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute runs the pipeline for a workflow caller. Only a missing message
// is an error; everything else is answered with a reply.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.config.Enabled {
		return nil, apperrors.NewInvalidRequestError(TaskType + " worker is disabled")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewInvalidRequestError("message is required")
	}

	reply := h.service.HandleMessage(ctx, input.Utterance())
	return &Output{Reply: reply}, nil
}
