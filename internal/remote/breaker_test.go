package remote

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/circuit"
)

type stubClient struct {
	calls  int
	result *Result
	err    error
}

func (s *stubClient) Submit(_ context.Context, _ *domain.TravelerPayload, _ string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestBreakerClient_FailsFastWhenOpen(t *testing.T) {
	stub := &stubClient{err: &domain.RemoteSubmissionError{Code: "http_503", Err: errors.New("unavailable")}}
	client := NewBreakerClient(stub, circuit.New("gateway", circuit.WithFailureThreshold(2)), slog.Default())

	for i := 0; i < 2; i++ {
		_, err := client.Submit(context.Background(), testPayload(), "token")
		require.Error(t, err)
	}
	assert.Equal(t, 2, stub.calls)

	_, err := client.Submit(context.Background(), testPayload(), "token")
	var remoteErr *domain.RemoteSubmissionError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "circuit_open", remoteErr.Code)
	assert.ErrorContains(t, remoteErr.Err, "temporarily unavailable")
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the gateway")
}

func TestBreakerClient_ApplicationRejectionsDoNotTrip(t *testing.T) {
	stub := &stubClient{err: &domain.RemoteSubmissionError{Code: "invalid_passport", Err: errors.New("rejected")}}
	client := NewBreakerClient(stub, circuit.New("gateway", circuit.WithFailureThreshold(1)), slog.Default())

	for i := 0; i < 3; i++ {
		_, err := client.Submit(context.Background(), testPayload(), "token")
		require.Error(t, err)
	}
	assert.Equal(t, 3, stub.calls)
}

func TestBreakerClient_SuccessCloses(t *testing.T) {
	breaker := circuit.New("gateway", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1))
	stub := &stubClient{err: &domain.RemoteSubmissionError{Err: errors.New("connection refused")}}
	client := NewBreakerClient(stub, breaker, slog.Default())

	_, err := client.Submit(context.Background(), testPayload(), "token")
	require.Error(t, err)
	assert.True(t, breaker.IsOpen())

	breaker.Reset()
	stub.err = nil
	stub.result = &Result{ArrCardNo: "TH-123"}

	result, err := client.Submit(context.Background(), testPayload(), "token")
	require.NoError(t, err)
	assert.Equal(t, "TH-123", result.ArrCardNo)
	assert.False(t, breaker.IsOpen())
}
