package remote

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/circuit"
)

// BreakerClient wraps a Client with a circuit breaker so that a struggling
// destination gateway fails fast instead of tying up submission attempts
// for the full remote timeout.
type BreakerClient struct {
	inner   Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerClient(inner Client, breaker *circuit.Breaker, logger *slog.Logger) *BreakerClient {
	return &BreakerClient{inner: inner, breaker: breaker, logger: logger}
}

func (c *BreakerClient) Submit(ctx context.Context, payload *domain.TravelerPayload, challengeToken string) (*Result, error) {
	if c.breaker.IsOpen() {
		return nil, &domain.RemoteSubmissionError{
			Code: "circuit_open",
			Err:  errors.New("destination gateway temporarily unavailable"),
		}
	}

	result, err := c.inner.Submit(ctx, payload, challengeToken)
	if err != nil {
		if gatewayFault(err) {
			_, change := c.breaker.RecordFailure()
			if change.Opened {
				c.logger.Warn("circuit breaker opened", "breaker", c.breaker.Name())
			}
		}
		return nil, err
	}

	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.Info("circuit breaker closed", "breaker", c.breaker.Name())
	}
	return result, nil
}

// gatewayFault reports whether an error indicates the gateway itself is
// unhealthy. Rejections of a specific payload (4xx application codes) say
// nothing about gateway health and must not trip the breaker.
func gatewayFault(err error) bool {
	var remoteErr *domain.RemoteSubmissionError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.Code == "" || strings.HasPrefix(remoteErr.Code, "http_5")
}
