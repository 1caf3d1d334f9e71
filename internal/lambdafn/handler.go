// Package lambdafn adapts the dispatcher to the AWS Lambda trigger used by the
// Alexa Skills Kit.
package lambdafn

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

// Dispatcher is the part of dispatch.Dispatcher the handler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *schema.Event) schema.Response
}

// Handler serves one skill invocation per call.
type Handler struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(d Dispatcher, logger zerolog.Logger) *Handler {
	return &Handler{dispatcher: d, logger: logger}
}

// Handle is registered with lambda.Start. Anticipated failures are folded into
// the response, so the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, event schema.Event) (schema.Response, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With().Str("aws_request_id", lc.AwsRequestID).Logger()
	}

	logger.Info().Interface("event", event).Msg("Request")

	resp := h.dispatcher.Dispatch(ctx, &event)

	logger.Debug().Interface("response", resp).Msg("Response")
	return resp, nil
}
