package lambdafn

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-home-relay/alexa-relay/internal/dispatch"
	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

type stubForwarder struct{}

func (stubForwarder) Forward(context.Context, string) (string, error) {
	return "ok", nil
}

func TestHandle_DecodedEvent(t *testing.T) {
	raw := `{"version":"1.0","request":{"type":"IntentRequest","intent":{"name":"SmartHomeIntent","slots":{"command":{"name":"command","value":"turn on living room light"}}}}}`

	var event schema.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	h := NewHandler(dispatch.New(stubForwarder{}, nil, zerolog.New(io.Discard)), zerolog.New(io.Discard))

	resp, err := h.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, "Executing: turn on living room light", resp.Text())
	assert.True(t, resp.EndSession())
}

func TestHandle_Launch(t *testing.T) {
	h := NewHandler(dispatch.New(stubForwarder{}, nil, zerolog.New(io.Discard)), zerolog.New(io.Discard))

	resp, err := h.Handle(context.Background(), schema.Event{Request: schema.EventRequest{Type: "LaunchRequest"}})

	require.NoError(t, err)
	assert.Equal(t, "What would you like me to do?", resp.Text())
	assert.False(t, resp.EndSession())
}

func TestHandle_LogsAwsRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(dispatch.New(stubForwarder{}, nil, zerolog.New(io.Discard)), zerolog.New(&buf))

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-123"})
	_, err := h.Handle(ctx, schema.Event{Request: schema.EventRequest{Type: "LaunchRequest"}})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"aws_request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"type":"LaunchRequest"`)
}
