package forwarder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/metrics"
)

// DefaultTimeout bounds a forward when the configuration leaves it unset.
const DefaultTimeout = 5 * time.Second

// Forwarder makes exactly one timed attempt per command through its Transport.
type Forwarder struct {
	transport Transport
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a Forwarder. m may be nil.
func New(transport Transport, cfg *config.ForwarderConfig, m *metrics.Metrics, logger zerolog.Logger) *Forwarder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Forwarder{
		transport: transport,
		timeout:   timeout,
		metrics:   m,
		logger:    logger.With().Str("component", "forwarder").Logger(),
	}
}

// NewHTTP is a convenience constructor wiring an HTTPTransport built from cfg.
func NewHTTP(cfg *config.ForwarderConfig, m *metrics.Metrics, logger zerolog.Logger) (*Forwarder, error) {
	transport, err := NewHTTPTransport(cfg)
	if err != nil {
		return nil, err
	}
	return New(transport, cfg, m, logger), nil
}

// Timeout returns the per-command deadline.
func (f *Forwarder) Timeout() time.Duration {
	return f.timeout
}

// Forward sends command and returns the endpoint's response body.
// Timeouts wrap ErrForwardTimeout; other transport failures wrap ErrForwardUnavailable.
func (f *Forwarder) Forward(ctx context.Context, command string) (string, error) {
	if command == "" {
		return "", ErrEmptyCommand
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	body, err := f.send(ctx, command)
	elapsed := time.Since(start)

	var statusErr *StatusError
	switch {
	case err == nil:
		f.metrics.ObserveForward("ok", elapsed)
	case errors.As(err, &statusErr):
		f.metrics.ObserveForward("non_2xx", elapsed)
		f.logger.Warn().Int("status", statusErr.StatusCode).Dur("duration", elapsed).Msg("Endpoint answered with non-success status")
		err = nil
	case IsTimeout(err) || ctx.Err() == context.DeadlineExceeded:
		f.metrics.ObserveForward("timeout", elapsed)
		if !errors.Is(err, ErrForwardTimeout) {
			err = fmt.Errorf("%w: %w", ErrForwardTimeout, err)
		}
		return "", err
	default:
		f.metrics.ObserveForward("error", elapsed)
		if !errors.Is(err, ErrForwardUnavailable) {
			err = fmt.Errorf("%w: %w", ErrForwardUnavailable, err)
		}
		return "", err
	}

	f.logger.Debug().Str("response", body).Dur("duration", elapsed).Msg("Endpoint response")
	return body, nil
}

type sendResult struct {
	body string
	err  error
}

// send returns as soon as ctx is done, even if the transport ignores it.
func (f *Forwarder) send(ctx context.Context, command string) (string, error) {
	done := make(chan sendResult, 1)
	go func() {
		body, err := f.transport.Send(ctx, command)
		done <- sendResult{body: body, err: err}
	}()

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
