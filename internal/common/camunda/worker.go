// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job and reports the outcome to the
// broker itself (complete, fail or throw).
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobHandlerFunc adapts a plain function to JobHandler.
type JobHandlerFunc func(client worker.JobClient, job entities.Job)

func (f JobHandlerFunc) Handle(client worker.JobClient, job entities.Job) { f(client, job) }

// JobRecorder receives per-job outcomes in addition to the Prometheus
// collectors. observability.Observability implements it.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType. It returns nil when the
// worker is disabled in config.
func StartWorker(client zbc.Client, taskType string, cfg config.WorkerConfig, handler JobHandler, recorder JobRecorder, log logger.Logger) *Worker {
	log = log.With(map[string]interface{}{"taskType": taskType})
	if !cfg.Enabled {
		log.Info("worker disabled", nil)
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, recorder, log).Handle).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": cfg.MaxJobsActive,
		"timeout_ms":    cfg.Timeout,
	})

	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

// Instrument wraps handler with duration metrics and panic recovery. A
// panicking handler fails its job through the error handler. recorder may
// be nil.
func Instrument(taskType string, handler JobHandler, recorder JobRecorder, log logger.Logger) JobHandler {
	errHandler := errors.NewErrorHandler(log)
	return JobHandlerFunc(func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		status := "handled"
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if recorder != nil {
				ctx := context.Background()
				recorder.RecordJobProcessed(ctx, taskType, status)
				recorder.RecordJobDuration(ctx, taskType, elapsed, status)
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				err := errors.NewInternalError(fmt.Errorf("handler panic: %v", r))
				metrics.WorkerJobsFailed.WithLabelValues(taskType, string(err.Code)).Inc()
				errHandler.HandleJobError(context.Background(), client, job, err)
			}
		}()
		handler.Handle(client, job)
	})
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
