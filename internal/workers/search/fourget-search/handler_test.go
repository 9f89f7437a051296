// internal/workers/search/fourget-search/handler_test.go
package fourgetsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/sidecar"
	"fourget-bridge/internal/common/validation"
	"fourget-bridge/pkg/registry"
	"fourget-bridge/pkg/results"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type stubSearcher struct {
	payload interface{}
	err     error
	engine  string
	params  map[string]interface{}
	calls   int
}

func (s *stubSearcher) Fetch(_ context.Context, engine string, params map[string]interface{}) (interface{}, error) {
	s.calls++
	s.engine = engine
	s.params = params
	return s.payload, s.err
}

type stubFilters struct {
	filters sidecar.Filters
	asked   []string
}

func (s *stubFilters) Get(_ context.Context, engine string) sidecar.Filters {
	s.asked = append(s.asked, engine)
	return s.filters
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                key,
			Type:               TaskType,
			ProcessInstanceKey: 1000 + key,
			Retries:            3,
			Variables:          string(raw),
		},
	}
}

func newTestHandler(t *testing.T, searcher Searcher, filters FilterProvider, manifest registry.Manifest) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Sidecar:  searcher,
		Filters:  filters,
		Manifest: manifest,
		Pipeline: results.NewPipeline(results.Options{Location: time.UTC, PlaceholderYearWindow: 1}),
		Logger:   logger.NewTestLogger(t),
		Clock:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return h
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"status":   "ok",
		"spelling": map[string]interface{}{"type": "including", "using": "golang", "correction": "golang"},
		"web": []interface{}{
			map[string]interface{}{
				"title":       "The Go Programming Language",
				"url":         "https://go.dev",
				"description": "Build simple, secure, scalable systems with Go",
				"date":        testNow.Add(-50 * time.Hour).Unix(),
				"thumb":       map[string]interface{}{"url": "https://go.dev/images/go-logo.png", "ratio": "16:9"},
			},
			map[string]interface{}{
				"title": "Broken",
				"url":   "https://example.com",
				"thumb": map[string]interface{}{"url": "https://cdn.example.com/placeholder.png", "ratio": "1:1"},
			},
			"not an item",
		},
	}
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Constructor
// ==========================

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name:    "missing sidecar",
			opts:    HandlerOptions{Filters: &stubFilters{}},
			wantErr: "sidecar client is required",
		},
		{
			name:    "missing filters",
			opts:    HandlerOptions{Sidecar: &stubSearcher{}},
			wantErr: "filter provider is required",
		},
		{
			name: "invalid timeout",
			opts: HandlerOptions{
				Sidecar:      &stubSearcher{},
				Filters:      &stubFilters{},
				CustomConfig: &Config{MaxJobsActive: 1},
			},
			wantErr: "timeout must be positive",
		},
		{
			name: "defaults",
			opts: HandlerOptions{Sidecar: &stubSearcher{}, Filters: &stubFilters{}, Logger: logger.NewNoOpLogger()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultConfig(), h.config)
			assert.NotNil(t, h.pipeline)
			assert.NotNil(t, h.now)
		})
	}
}

// ==========================
// Input Parsing
// ==========================

func TestParseInput(t *testing.T) {
	h := newTestHandler(t, &stubSearcher{}, &stubFilters{}, nil)

	tests := []struct {
		name    string
		vars    map[string]interface{}
		wantErr bool
	}{
		{"valid", map[string]interface{}{"engine": "brave", "query": "golang"}, false},
		{"with params", map[string]interface{}{"engine": "brave", "query": "golang", "params": map[string]interface{}{"safesearch": 1, "pageno": 2, "time_range": "week"}}, false},
		{"extra process variables", map[string]interface{}{"engine": "brave", "query": "golang", "userId": "u-1"}, false},
		{"missing engine", map[string]interface{}{"query": "golang"}, true},
		{"missing query", map[string]interface{}{"engine": "brave"}, true},
		{"blank query", map[string]interface{}{"engine": "brave", "query": "   "}, true},
		{"bad engine name", map[string]interface{}{"engine": "../etc", "query": "golang"}, true},
		{"bad safesearch", map[string]interface{}{"engine": "brave", "query": "q", "params": map[string]interface{}{"safesearch": 5}}, true},
		{"bad time range", map[string]interface{}{"engine": "brave", "query": "q", "params": map[string]interface{}{"time_range": "decade"}}, true},
		{"bad page", map[string]interface{}{"engine": "brave", "query": "q", "params": map[string]interface{}{"pageno": 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.vars))
			if tt.wantErr {
				requireCode(t, err, errors.ErrCodeInvalidSearchInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "brave", input.Engine)
			assert.Equal(t, "golang", input.Query)
		})
	}
}

func TestParseInput_NotJSON(t *testing.T) {
	h := newTestHandler(t, &stubSearcher{}, &stubFilters{}, nil)
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: "{not json"}}

	_, err := h.parseInput(job)
	requireCode(t, err, errors.ErrCodeInvalidSearchInput)
}

// ==========================
// Execute
// ==========================

func TestExecute(t *testing.T) {
	searcher := &stubSearcher{payload: samplePayload()}
	filters := &stubFilters{filters: sidecar.Filters{"nsfw": {Options: []string{"yes", "no"}}}}
	h := newTestHandler(t, searcher, filters, nil)

	out, err := h.Execute(context.Background(), &Input{
		RequestID: "req-1",
		Engine:    "Brave",
		Query:     "golang",
		Params:    map[string]interface{}{"safesearch": 2},
	})
	require.NoError(t, err)

	assert.Equal(t, "brave", searcher.engine)
	assert.Equal(t, []string{"brave"}, filters.asked)
	assert.Equal(t, "golang", searcher.params["s"])
	assert.Equal(t, "no", searcher.params["nsfw"])

	assert.Equal(t, "req-1", out.RequestID)
	assert.Equal(t, "brave", out.Engine)
	require.Len(t, out.Results, 2)
	assert.Equal(t, results.KindSuggestion, out.Results[0].Type)
	assert.Equal(t, results.KindWeb, out.Results[1].Type)

	web := out.Results[1].Result.(results.WebResult)
	assert.Equal(t, "https://go.dev", *web.URL)
	require.NotNil(t, web.PublishedDate)

	assert.Equal(t, 1, out.Stats.Emitted[results.KindWeb])
	assert.Equal(t, 1, out.Stats.Dropped[results.KindWeb][results.DropBrokenThumbnail])
	assert.Equal(t, 1, out.Stats.Skipped[results.KindWeb])
	assert.False(t, out.Stats.Malformed)
}

func TestExecute_OutputMatchesSchema(t *testing.T) {
	h := newTestHandler(t, &stubSearcher{payload: samplePayload()}, &stubFilters{}, nil)

	out, err := h.Execute(context.Background(), &Input{Engine: "brave", Query: "golang"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.RequestID)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	v, err := validation.Compile(GetOutputSchema())
	require.NoError(t, err)
	res := v.ValidateJSON(raw)
	assert.True(t, res.Valid, res.Error())
}

func TestExecute_MalformedPayload(t *testing.T) {
	for name, payload := range map[string]interface{}{
		"string":         "<html>captcha</html>",
		"nil":            nil,
		"bad web list":   map[string]interface{}{"web": "oops"},
		"top level list": []interface{}{1, 2},
	} {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, &stubSearcher{payload: payload}, &stubFilters{}, nil)

			out, err := h.Execute(context.Background(), &Input{Engine: "brave", Query: "golang"})
			require.NoError(t, err)
			assert.Empty(t, out.Results)
			assert.NotNil(t, out.Results)
			assert.True(t, out.Stats.Malformed)
		})
	}
}

func TestExecute_SidecarErrorPassesThrough(t *testing.T) {
	searcher := &stubSearcher{err: errors.NewSidecarTimeoutError("brave")}
	h := newTestHandler(t, searcher, &stubFilters{}, nil)

	_, err := h.Execute(context.Background(), &Input{Engine: "brave", Query: "golang"})
	requireCode(t, err, errors.ErrCodeSidecarTimeout)
}

func TestExecute_ManifestRejectsUnknownEngine(t *testing.T) {
	searcher := &stubSearcher{payload: samplePayload()}
	manifest := registry.Manifest{"brave": {}}
	h := newTestHandler(t, searcher, &stubFilters{}, manifest)

	_, err := h.Execute(context.Background(), &Input{Engine: "yahoo", Query: "golang"})
	requireCode(t, err, errors.ErrCodeEngineNotFound)
	assert.Zero(t, searcher.calls)

	_, err = h.Execute(context.Background(), &Input{Engine: "BRAVE", Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, 1, searcher.calls)
}

func TestExecute_EngineOverridesFromConfig(t *testing.T) {
	searcher := &stubSearcher{payload: map[string]interface{}{"status": "ok"}}
	h := newTestHandler(t, searcher, &stubFilters{}, nil)
	h.engines = map[string]config.EngineConfig{
		"mojeek": {FixedParams: map[string]string{"spellcheck": "no"}},
	}

	_, err := h.Execute(context.Background(), &Input{Engine: "mojeek", Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "no", searcher.params["spellcheck"])
}

// ==========================
// Sidecar Integration
// ==========================

func TestExecute_WithSidecarClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/filters.php":
			_, _ = w.Write([]byte(`{"nsfw":{"display":"NSFW","option":{"yes":"Yes","maybe":"Maybe","no":"No"}}}`))
		case "/harness.php":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			params := body["params"].(map[string]interface{})
			assert.Equal(t, "yes", params["nsfw"])
			_, _ = w.Write([]byte(`{"status":"ok","related":["go tutorial"],"web":[{"title":"Go","url":"https://go.dev","description":"Go"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := sidecar.NewClient(config.SidecarConfig{BaseURL: server.URL, Timeout: 2000}, logger.NewTestLogger(t))
	cache := sidecar.NewFilterCache(client, nil, time.Minute, logger.NewTestLogger(t))
	h := newTestHandler(t, client, cache, nil)

	out, err := h.Execute(context.Background(), &Input{Engine: "brave", Query: "golang"})
	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, results.SuggestionResult{Text: "go tutorial"}, out.Results[0].Result)
	assert.Equal(t, results.KindWeb, out.Results[1].Type)
}
