package errors

import (
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, map[string]interface{}) {}

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:     42,
		Type:    "fourget-search",
		Retries: retries,
	}}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewSidecarError("brave", "captcha wall")
	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "SEARCH_ENGINE_ERROR", bpmn.Code)
	assert.Equal(t, 1, bpmn.Retries)
	assert.Equal(t, "captcha wall", bpmn.Details)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "SIDECAR_ERROR", vars["originalErrorCode"])
	assert.Equal(t, "brave", vars["engine"])
	assert.Equal(t, true, vars["retryable"])
}

func TestConvertToBPMNError_UnmappedCode(t *testing.T) {
	bpmn := ConvertToBPMNError(NewBusinessRuleError("nope", "details"))
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeSidecarUnavailable))
	assert.Equal(t, 2, GetRetryCount(ErrCodeSidecarTimeout))
	assert.Equal(t, 1, GetRetryCount(ErrCodeSidecarError))
	assert.Equal(t, 0, GetRetryCount(ErrCodeEngineNotFound))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidSearchInput))
	assert.True(t, IsRetryableErrorCode(ErrCodeFiltersFetchFailed))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeSidecarTimeout:      "SIDECAR",
		ErrCodeFiltersFetchFailed:  "SIDECAR",
		ErrCodeUpstreamFetchFailed: "UPSTREAM",
		ErrCodeEngineNotFound:      "REGISTRY",
		ErrCodeManifestInvalid:     "REGISTRY",
		ErrCodeInvalidSearchInput:  "VALIDATION",
		ErrCodeTimeout:             "INFRASTRUCTURE",
		ErrCodeInternal:            "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestAsStandardError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", NewEngineNotFoundError("altavista"))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeEngineNotFound, stdErr.Code)
	assert.Equal(t, "altavista", stdErr.Metadata["engine"])

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	stdErr := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
	assert.False(t, stdErr.Retryable)
}

func TestErrorHandler_Decide(t *testing.T) {
	h := NewErrorHandler(nopLogger{})

	tests := []struct {
		name        string
		err         error
		jobRetries  int32
		wantRetry   bool
		wantRetries int32
		wantCode    string
	}{
		{"retryable with budget", NewSidecarUnavailableError(fmt.Errorf("refused")), 5, true, 3, "SIDECAR_UNAVAILABLE"},
		{"retryable capped by job", NewSidecarUnavailableError(fmt.Errorf("refused")), 2, true, 1, "SIDECAR_UNAVAILABLE"},
		{"retryable without budget", NewSidecarTimeoutError("brave"), 0, false, 0, "SIDECAR_TIMEOUT"},
		{"business error thrown", NewEngineNotFoundError("x"), 3, false, 0, "ENGINE_NOT_FOUND"},
		{"plain error thrown", fmt.Errorf("boom"), 3, false, 0, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := h.Decide(jobWithRetries(tt.jobRetries), tt.err)
			assert.Equal(t, tt.wantRetry, d.Retry)
			assert.Equal(t, tt.wantRetries, d.Retries)
			assert.Equal(t, tt.wantCode, d.BPMN.Code)
		})
	}
}
