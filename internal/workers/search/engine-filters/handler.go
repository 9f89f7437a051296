// internal/workers/search/engine-filters/handler.go
package enginefilters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
	"fourget-bridge/internal/common/sidecar"
	"fourget-bridge/internal/common/validation"
	"fourget-bridge/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "engine-filters"
)

// FilterStore is the cached filters lookup.
type FilterStore interface {
	Get(ctx context.Context, engine string) sidecar.Filters
	Invalidate(ctx context.Context, engine string) error
}

type HandlerOptions struct {
	CustomConfig *Config
	Filters      FilterStore
	Manifest     registry.Manifest
	Logger       logger.Logger
}

type Handler struct {
	config     *Config
	filters    FilterStore
	manifest   registry.Manifest
	validator  *validation.Validator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.CustomConfig
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Filters == nil {
		return nil, fmt.Errorf("filter store is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	validator, err := validation.Compile(GetInputSchema())
	if err != nil {
		return nil, err
	}

	return &Handler{
		config:     cfg,
		filters:    opts.Filters,
		manifest:   opts.Manifest,
		validator:  validator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}
	h.completeJob(client, job, output)
}

// Execute returns the engine's filters and the default option of each.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	engine := strings.ToLower(input.Engine)
	if h.manifest != nil {
		if _, ok := h.manifest.Engine(engine); !ok {
			return nil, errors.NewEngineNotFoundError(engine)
		}
	}

	if input.Refresh {
		if err := h.filters.Invalidate(ctx, engine); err != nil {
			h.logger.Warn("failed to invalidate cached filters", map[string]interface{}{
				"engine": engine,
				"error":  err.Error(),
			})
		}
	}

	filters := h.filters.Get(ctx, engine)
	if filters == nil {
		filters = sidecar.Filters{}
	}

	defaults := make(map[string]string, len(filters))
	for _, name := range filters.Names() {
		if def, ok := filters[name].Default(); ok {
			defaults[name] = def
		}
	}

	h.logger.Debug("filters resolved", map[string]interface{}{
		"engine": engine,
		"count":  len(filters),
	})
	return &Output{Engine: engine, Filters: filters, Defaults: defaults}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)
	if res := h.validator.ValidateJSON(raw); !res.Valid {
		return nil, errors.NewInvalidSearchInputError(res.Error())
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidSearchInputError(err.Error())
	}
	return &input, nil
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
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"engine":  output.Engine,
		"filters": len(output.Filters),
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, stdErr)
}
