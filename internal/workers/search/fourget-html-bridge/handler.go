// internal/workers/search/fourget-html-bridge/handler.go
package fourgethtmlbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/errors"
	httpclient "fourget-bridge/internal/common/http"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
	"fourget-bridge/internal/common/validation"
	"fourget-bridge/pkg/results"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "fourget-html-bridge"

	queryPlaceholder = "{query}"
)

// PageFetcher downloads the engine's result page.
type PageFetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (*httpclient.Response, error)
}

// Parser hands fetched HTML to a sidecar scraper.
type Parser interface {
	Parse(ctx context.Context, scraper, html string, params map[string]interface{}) (interface{}, error)
}

type HandlerOptions struct {
	CustomConfig *Config
	Parser       Parser
	// Fetcher defaults to an HTTP client sending the configured user agent.
	Fetcher  PageFetcher
	Engines  map[string]config.EngineConfig
	Pipeline *results.Pipeline
	Logger   logger.Logger
	Clock    func() time.Time
}

type Handler struct {
	config     *Config
	parser     Parser
	fetcher    PageFetcher
	engines    map[string]config.EngineConfig
	pipeline   *results.Pipeline
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
	if opts.Parser == nil {
		return nil, fmt.Errorf("sidecar parser is required")
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

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = httpclient.NewClient(cfg.Timeout, httpclient.WithUserAgent(cfg.UserAgent))
	}
	pipeline := opts.Pipeline
	if pipeline == nil {
		pipeline = results.NewPipeline(results.DefaultOptions())
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	engines := make(map[string]config.EngineConfig, len(opts.Engines))
	for name, ec := range opts.Engines {
		engines[strings.ToLower(name)] = ec
	}

	return &Handler{
		config:     cfg,
		parser:     opts.Parser,
		fetcher:    fetcher,
		engines:    engines,
		pipeline:   pipeline,
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

// Execute fetches the engine page, has the sidecar scraper parse it and
// normalizes the answer.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	scraper := strings.ToLower(input.Scraper)
	target, err := h.TargetURL(scraper, input.Query, input.SafeSearch)
	if err != nil {
		return nil, err
	}

	resp, err := h.fetcher.Get(ctx, target, nil)
	if err != nil {
		return nil, errors.NewUpstreamFetchFailedError(target, err)
	}
	if !resp.OK() {
		return nil, errors.NewUpstreamFetchFailedError(target, fmt.Errorf("upstream returned HTTP %d", resp.StatusCode))
	}

	payload, err := h.parser.Parse(ctx, scraper, string(resp.Body), ParseParams(input.Query, input.Locale, input.SafeSearch))
	if err != nil {
		return nil, err
	}

	now := h.now()
	normalized, stats := h.pipeline.Run(payload, now)
	metrics.RecordPipeline(scraper, stats)

	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	fields := map[string]interface{}{
		"requestId": requestID,
		"engine":    scraper,
		"bytes":     len(resp.Body),
		"emitted":   len(normalized),
		"dropped":   stats.TotalDropped(),
	}
	if stats.Malformed {
		h.logger.Warn("scraper returned a malformed payload", fields)
	} else {
		h.logger.Info("bridge search completed", fields)
	}

	return &Output{
		RequestID: requestID,
		Engine:    scraper,
		TargetURL: target,
		Results:   results.Tag(normalized),
		Stats:     stats,
	}, nil
}

// TargetURL fills the scraper's configured URL template with the escaped
// query and appends the safe search suffix when safe search is on.
func (h *Handler) TargetURL(scraper, query string, safeSearch int) (string, error) {
	ec, ok := h.engines[scraper]
	if !ok || ec.TargetURL == "" {
		return "", errors.NewEngineNotFoundError(scraper).
			WithMetadata("reason", "no target_url configured for the HTML bridge")
	}

	target := strings.ReplaceAll(ec.TargetURL, queryPlaceholder, url.QueryEscape(query))
	if safeSearch != 0 && ec.SafeParam != "" {
		target += ec.SafeParam
	}
	return target, nil
}

// ParseParams builds the params a scraper reads in HTML-injection mode.
// Country is the last part of the locale and lang the first.
func ParseParams(query, locale string, safeSearch int) map[string]interface{} {
	country, lang := "us", "en"
	if locale != "" {
		parts := strings.Split(locale, "-")
		country = strings.ToLower(parts[len(parts)-1])
		lang = parts[0]
	}

	nsfw := "no"
	if safeSearch == 0 {
		nsfw = "yes"
	}
	return map[string]interface{}{
		"s":       query,
		"country": country,
		"lang":    lang,
		"nsfw":    nsfw,
	}
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
