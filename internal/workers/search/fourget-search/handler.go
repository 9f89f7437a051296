// internal/workers/search/fourget-search/handler.go
package fourgetsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
	"fourget-bridge/internal/common/sidecar"
	"fourget-bridge/internal/common/validation"
	"fourget-bridge/pkg/registry"
	"fourget-bridge/pkg/results"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "fourget-search"
)

// Searcher runs an engine through the sidecar harness.
type Searcher interface {
	Fetch(ctx context.Context, engine string, params map[string]interface{}) (interface{}, error)
}

// FilterProvider returns an engine's filter definitions.
type FilterProvider interface {
	Get(ctx context.Context, engine string) sidecar.Filters
}

type HandlerOptions struct {
	CustomConfig *Config
	Sidecar      Searcher
	Filters      FilterProvider
	// Manifest, when set, rejects engines it does not list.
	Manifest registry.Manifest
	Pipeline *results.Pipeline
	Engines  map[string]config.EngineConfig
	Logger   logger.Logger
	Clock    func() time.Time
}

type Handler struct {
	config     *Config
	sidecar    Searcher
	filters    FilterProvider
	manifest   registry.Manifest
	pipeline   *results.Pipeline
	engines    map[string]config.EngineConfig
	validator  *validation.Validator
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
	if opts.Filters == nil {
		return nil, fmt.Errorf("filter provider is required")
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

	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = results.NewPipeline(results.DefaultOptions())
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Handler{
		config:     cfg,
		sidecar:    opts.Sidecar,
		filters:    opts.Filters,
		manifest:   opts.Manifest,
		pipeline:   pipeline,
		engines:    opts.Engines,
		validator:  validator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
		now:        clock,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
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
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"duration": time.Since(start).String(),
	})
}

// Execute fetches, filters and normalizes one engine search.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	engine := strings.ToLower(input.Engine)
	if h.manifest != nil {
		if _, ok := h.manifest.Engine(engine); !ok {
			return nil, errors.NewEngineNotFoundError(engine)
		}
	}

	now := h.now()
	filters := h.filters.Get(ctx, engine)
	params := MapParams(engine, input.Query, input.Params, filters, h.engines[engine], now)

	payload, err := h.sidecar.Fetch(ctx, engine, params)
	if err != nil {
		return nil, err
	}

	normalized, stats := h.pipeline.Run(payload, now)
	metrics.RecordPipeline(engine, stats)

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	fields := map[string]interface{}{
		"requestId": requestID,
		"engine":    engine,
		"emitted":   len(normalized),
		"dropped":   stats.TotalDropped(),
	}
	if stats.Malformed {
		h.logger.Warn("engine returned a malformed payload", fields)
	} else {
		h.logger.Info("search completed", fields)
	}

	return &Output{
		RequestID: requestID,
		Engine:    engine,
		Results:   results.Tag(normalized),
		Stats:     stats,
	}, nil
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
	input.Query = strings.TrimSpace(input.Query)
	if input.Query == "" {
		return nil, errors.NewInvalidSearchInputError("query is blank")
	}
	return &input, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
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
