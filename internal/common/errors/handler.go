// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/metrics"
)

// ErrorHandler turns stage errors into zeebe fail or throw commands.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// jobOutcome is what the broker is told about a failed job.
type jobOutcome struct {
	throw   bool
	retries int32
	backoff time.Duration
}

// decideOutcome retries retryable codes while the job has retries left,
// never raising the remaining count. Everything else is thrown as BPMN.
func decideOutcome(stdErr *StandardError, remaining int32) jobOutcome {
	budget := int32(GetRetryCount(stdErr.Code))
	if !stdErr.Retryable || budget == 0 || remaining <= 0 {
		return jobOutcome{throw: true}
	}
	retries := remaining - 1
	if retries > budget {
		retries = budget
	}
	return jobOutcome{retries: retries, backoff: retryBackoff(stdErr.Code)}
}

// retryBackoff spaces out retries for backends that need time to recover.
func retryBackoff(code ErrorCode) time.Duration {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeDatabaseConnectionFailed:
		return 5 * time.Second
	case ErrCodeQueryTimeout, ErrCodeTimeout:
		return 2 * time.Second
	default:
		return time.Second
	}
}

// HandleJobError reports err for job and counts it against the job type.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	outcome := decideOutcome(stdErr, job.Retries)

	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(stdErr.Code)).Inc()

	fields := map[string]interface{}{
		"jobKey":             job.Key,
		"jobType":            job.Type,
		"processInstanceKey": job.ProcessInstanceKey,
		"errorCode":          string(stdErr.Code),
		"category":           GetErrorCategory(stdErr.Code),
		"details":            stdErr.Details,
	}
	if outcome.throw {
		fields["bpmnErrorCode"] = bpmnErr.Code
		h.logger.Error("job failed, throwing BPMN error", fields)
		h.throw(ctx, client, job, bpmnErr)
		return
	}
	fields["retriesLeft"] = outcome.retries
	fields["backoff"] = outcome.backoff.String()
	h.logger.Warn("job failed, will retry", fields)
	h.fail(ctx, client, job, bpmnErr, outcome)
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func (h *ErrorHandler) fail(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, outcome jobOutcome) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(outcome.retries).
		RetryBackoff(outcome.backoff).
		ErrorMessage(bpmnErr.Message)

	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
			_, sendErr := withVars.Send(ctx)
			h.sent(job, "fail", sendErr)
			return
		}
	}
	_, sendErr := cmd.Send(ctx)
	h.sent(job, "fail", sendErr)
}

func (h *ErrorHandler) throw(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if vars, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
			_, sendErr := withVars.Send(ctx)
			h.sent(job, "throw", sendErr)
			return
		}
	}
	_, sendErr := cmd.Send(ctx)
	h.sent(job, "throw", sendErr)
}

func (h *ErrorHandler) sent(job entities.Job, command string, err error) {
	if err == nil {
		return
	}
	h.logger.Error("failed to send job command", map[string]interface{}{
		"jobKey":  job.Key,
		"command": command,
		"error":   err.Error(),
	})
}
