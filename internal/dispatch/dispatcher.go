package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/forwarder"
	"github.com/smart-home-relay/alexa-relay/internal/metrics"
	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

// Spoken replies.
const (
	TextLaunch         = "What would you like me to do?"
	TextExecuting      = "Executing: %s"
	TextForwardFailed  = "There was an error executing the command"
	TextMissingCommand = "I didn't understand the command"
	TextHelp           = "You can say things like: turn on the living room light, turn off everything, or activate movie scene"
	TextGoodbye        = "Goodbye"
	TextNotUnderstood  = "I didn't understand"
)

// Outcome labels recorded per dispatched event.
const (
	OutcomeLaunch         = "launch"
	OutcomeExecuted       = "executed"
	OutcomeForwardFailed  = "forward_failed"
	OutcomeMissingCommand = "missing_command"
	OutcomeHelp           = "help"
	OutcomeGoodbye        = "goodbye"
	OutcomeNotUnderstood  = "not_understood"
)

// CommandForwarder delivers a command to the smart-home endpoint.
type CommandForwarder interface {
	Forward(ctx context.Context, command string) (string, error)
}

// Ensure the production forwarder satisfies CommandForwarder.
var _ CommandForwarder = (*forwarder.Forwarder)(nil)

// Dispatcher turns skill events into spoken responses.
type Dispatcher struct {
	forwarder CommandForwarder
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates a Dispatcher. m may be nil.
func New(f CommandForwarder, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		forwarder: f,
		metrics:   m,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch classifies event and builds the response. It never fails: every
// branch, including a nil event, yields a response.
func (d *Dispatcher) Dispatch(ctx context.Context, event *schema.Event) schema.Response {
	if event == nil {
		return d.respond(d.logger, "", OutcomeNotUnderstood, TextNotUnderstood, true)
	}

	requestType := event.Request.Type
	logger := d.logger.With().
		Str("request_type", requestType).
		Str("intent", event.IntentName()).
		Str("request_id", event.Request.RequestID).
		Logger()

	switch ParseRequestKind(requestType) {
	case RequestLaunch:
		return d.respond(logger, requestType, OutcomeLaunch, TextLaunch, false)
	case RequestIntent:
		return d.dispatchIntent(ctx, logger, event)
	default:
		return d.respond(logger, requestType, OutcomeNotUnderstood, TextNotUnderstood, true)
	}
}

func (d *Dispatcher) dispatchIntent(ctx context.Context, logger zerolog.Logger, event *schema.Event) schema.Response {
	requestType := event.Request.Type

	switch ParseIntentKind(event.IntentName()) {
	case IntentSmartHome:
		return d.dispatchCommand(ctx, logger, event)
	case IntentHelp:
		return d.respond(logger, requestType, OutcomeHelp, TextHelp, false)
	case IntentStop, IntentCancel:
		return d.respond(logger, requestType, OutcomeGoodbye, TextGoodbye, true)
	default:
		return d.respond(logger, requestType, OutcomeNotUnderstood, TextNotUnderstood, true)
	}
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, logger zerolog.Logger, event *schema.Event) schema.Response {
	requestType := event.Request.Type

	command, ok := event.Slot(CommandSlot)
	if !ok {
		return d.respond(logger, requestType, OutcomeMissingCommand, TextMissingCommand, true)
	}

	logger = logger.With().Str("command", command).Logger()

	if _, err := d.forwarder.Forward(ctx, command); err != nil {
		logger.Error().Err(err).Bool("timeout", forwarder.IsTimeout(err)).Msg("Forwarding command failed")
		return d.respond(logger, requestType, OutcomeForwardFailed, TextForwardFailed, true)
	}

	return d.respond(logger, requestType, OutcomeExecuted, fmt.Sprintf(TextExecuting, command), true)
}

func (d *Dispatcher) respond(logger zerolog.Logger, requestType, outcome, text string, endSession bool) schema.Response {
	d.metrics.ObserveDispatch(requestType, outcome)
	logger.Info().Str("outcome", outcome).Bool("end_session", endSession).Msg("Dispatched")
	return schema.NewResponse(text, endSession)
}
