// internal/workers/search/sidecar-health/handler.go
package sidecarhealth

import (
	"context"
	"fmt"
	"time"

	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
	"fourget-bridge/internal/common/sidecar"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sidecar-health"
)

// HealthChecker queries the sidecar's health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) (*sidecar.Health, error)
}

type HandlerOptions struct {
	CustomConfig *Config
	Sidecar      HealthChecker
	Logger       logger.Logger
	Clock        func() time.Time
}

type Handler struct {
	config     *Config
	sidecar    HealthChecker
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Sidecar == nil {
		return nil, fmt.Errorf("sidecar client is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Handler{
		config:     cfg,
		sidecar:    opts.Sidecar,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
		now:        clock,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Debug("processing job", map[string]interface{}{
		"jobKey": job.Key,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx)
	if err != nil {
		h.failJob(client, job, err)
		return
	}
	h.completeJob(client, job, output)
}

// Execute reports the sidecar's health. A degraded or failing sidecar is a
// normal answer; only an unreachable one fails the job.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	health, err := h.sidecar.Health(ctx)
	if err != nil {
		return nil, err
	}

	checks := health.Checks
	if checks == nil {
		checks = map[string]string{}
	}
	output := &Output{
		Status:      health.Status,
		Healthy:     health.OK(),
		Checks:      checks,
		EngineCount: health.EngineCount,
		CheckedAt:   h.now().UTC().Format(time.RFC3339),
	}

	if !output.Healthy {
		h.logger.Warn("sidecar is not healthy", map[string]interface{}{
			"status":     health.Status,
			"httpStatus": health.HTTPStatus,
			"checks":     checks,
		})
	}
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.failJob(client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}
