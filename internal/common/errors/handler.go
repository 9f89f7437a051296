// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws Zeebe jobs from worker errors.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is what HandleJobError does with a job.
type Decision struct {
	Retry   bool
	Retries int32
	BPMN    *BPMNError
}

// Decide maps an error onto a fail-with-retries or a BPMN throw. Retries are
// capped by what the job has left.
func (h *ErrorHandler) Decide(job entities.Job, err error) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := int32(bpmnErr.Retries)
	if retries > 0 && job.Retries > 0 {
		if job.Retries-1 < retries {
			retries = job.Retries - 1
		}
		return Decision{Retry: true, Retries: retries, BPMN: bpmnErr}
	}
	return Decision{BPMN: bpmnErr}
}

// HandleJobError reports err for job to the broker.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	decision := h.Decide(job, err)
	h.logError(job, Normalize(err), decision)

	vars, _ := json.Marshal(decision.BPMN.ToErrorVariables())

	if decision.Retry {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(decision.Retries).
			ErrorMessage(decision.BPMN.Message)
		if withVars, varsErr := cmd.VariablesFromString(string(vars)); varsErr == nil {
			h.send(ctx, job, func(ctx context.Context) error { _, e := withVars.Send(ctx); return e })
			return
		}
		h.send(ctx, job, func(ctx context.Context) error { _, e := cmd.Send(ctx); return e })
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(decision.BPMN.Code).
		ErrorMessage(decision.BPMN.Message)
	if withVars, varsErr := cmd.VariablesFromString(string(vars)); varsErr == nil {
		h.send(ctx, job, func(ctx context.Context) error { _, e := withVars.Send(ctx); return e })
		return
	}
	h.send(ctx, job, func(ctx context.Context) error { _, e := cmd.Send(ctx); return e })
}

func (h *ErrorHandler) send(ctx context.Context, job entities.Job, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		h.logger.Error("Failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, decision Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    decision.BPMN.Code,
		"message":          decision.BPMN.Message,
		"details":          stdErr.Details,
		"retry":            decision.Retry,
		"retries":          decision.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
