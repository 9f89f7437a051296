package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"fourget-bridge/internal/common/errors"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: 2,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := map[string]bool{
		"rpc error: code = Unavailable desc = connection refused": true,
		"context deadline exceeded":                               true,
		"write: broken pipe":                                      true,
		"rpc error: code = NotFound desc = job not found":         false,
		"permission denied":                                       false,
	}
	for msg, want := range tests {
		t.Run(msg, func(t *testing.T) {
			assert.Equal(t, want, isRetryableZeebeError(stderrors.New(msg)))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"context deadline exceeded", errors.ErrCodeTimeout},
		{"job 42 not found", errors.ErrCodeResourceNotFound},
		{"process already exists", errors.ErrCodeBusinessRule},
		{"unauthorized", errors.ErrCodeAuthenticationFailed},
		{"connection refused", errors.ErrCodeExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := mapZeebeError(stderrors.New(tt.msg), "complete", 0)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testClient()
	calls := 0
	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("connection reset by peer")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := testClient()
	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("permission denied")
	}, "deploy")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAuthenticationFailed, stdErr.Code)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	c := testClient()
	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("unavailable")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := testClient()
	c.config.RetryConfig.BaseDelay = time.Second
	c.config.RetryConfig.MaxDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("timeout")
	}, "topology")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Capped(t *testing.T) {
	c := testClient()
	assert.Equal(t, time.Millisecond, c.backoff(0))
	assert.Equal(t, 2*time.Millisecond, c.backoff(1))
	assert.Equal(t, 5*time.Millisecond, c.backoff(4))
}

func TestInstrument_ObservesDuration(t *testing.T) {
	const taskType = "instrument-test"
	called := false
	h := Instrument(taskType, JobHandlerFunc(func(worker.JobClient, entities.Job) {
		called = true
	}), nil, logger.NewNoOpLogger())

	h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: taskType}})

	assert.True(t, called)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.WorkerJobDuration), 1)
}

type recordedJob struct {
	taskType string
	status   string
}

type fakeRecorder struct {
	processed []recordedJob
	durations int
}

func (f *fakeRecorder) RecordJobProcessed(_ context.Context, taskType, status string) {
	f.processed = append(f.processed, recordedJob{taskType, status})
}

func (f *fakeRecorder) RecordJobDuration(context.Context, string, time.Duration, string) {
	f.durations++
}

func TestInstrument_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	h := Instrument("recorded", JobHandlerFunc(func(worker.JobClient, entities.Job) {}), rec, logger.NewNoOpLogger())

	h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2, Type: "recorded"}})
	h.Handle(nil, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 3, Type: "recorded"}})

	assert.Equal(t, []recordedJob{{"recorded", "handled"}, {"recorded", "handled"}}, rec.processed)
	assert.Equal(t, 2, rec.durations)
}
