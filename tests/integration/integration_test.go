//go:build integration
// +build integration

// Integration tests wire the real forwarder, dispatcher and router against an
// in-process smart-home endpoint.
// Run with: go test -tags=integration ./tests/integration/...

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-home-relay/alexa-relay/internal/api"
	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/dispatch"
	"github.com/smart-home-relay/alexa-relay/internal/forwarder"
	"github.com/smart-home-relay/alexa-relay/internal/lambdafn"
	"github.com/smart-home-relay/alexa-relay/internal/metrics"
	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

type smartHome struct {
	mu       sync.Mutex
	commands []string
	tokens   []string
	status   int
	delay    time.Duration
}

func (s *smartHome) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		return
	}

	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.commands = append(s.commands, string(body))
	s.tokens = append(s.tokens, r.Header.Get(forwarder.AuthHeader))
	status, delay := s.status, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte("handled"))
}

func (s *smartHome) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *smartHome) receivedTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

type relay struct {
	server     *httptest.Server
	dispatcher *dispatch.Dispatcher
	registry   *prometheus.Registry
}

func newRelay(t *testing.T, home *smartHome, timeout time.Duration) *relay {
	t.Helper()

	endpoint := httptest.NewServer(home)
	t.Cleanup(endpoint.Close)

	cfg, err := config.LoadWithDefaults(nil)
	require.NoError(t, err)
	cfg.Forwarder.URL = endpoint.URL + "/"
	cfg.Forwarder.AuthToken = "home-token"
	cfg.Forwarder.Timeout = timeout
	cfg.Limits.RequestsPerMinute = 0

	logger := zerolog.New(io.Discard)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	fwd, err := forwarder.NewHTTP(&cfg.Forwarder, m, logger)
	require.NoError(t, err)

	d := dispatch.New(fwd, m, logger)
	srv := httptest.NewServer(api.NewRouter(cfg, d, reg, logger))
	t.Cleanup(srv.Close)

	return &relay{server: srv, dispatcher: d, registry: reg}
}

func (r *relay) postSkill(t *testing.T, body string) schema.Response {
	t.Helper()

	resp, err := http.Post(r.server.URL+"/v1/skill", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out schema.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func commandEvent(command string) string {
	event := schema.Event{Request: schema.EventRequest{
		Type: schema.RequestTypeIntent,
		Intent: &schema.Intent{
			Name:  "SmartHomeIntent",
			Slots: map[string]schema.Slot{dispatch.CommandSlot: {Name: dispatch.CommandSlot, Value: command}},
		},
	}}
	raw, _ := json.Marshal(event)
	return string(raw)
}

func TestCommandReachesEndpoint(t *testing.T) {
	home := &smartHome{}
	r := newRelay(t, home, time.Second)

	resp := r.postSkill(t, commandEvent("turn on the living room light"))

	assert.Equal(t, "Executing: turn on the living room light", resp.Text())
	assert.True(t, resp.EndSession())
	assert.Equal(t, []string{"turn on the living room light"}, home.received())
	assert.Equal(t, []string{"home-token"}, home.receivedTokens())
}

func TestEndpointErrorStatusStillExecutes(t *testing.T) {
	home := &smartHome{status: http.StatusInternalServerError}
	r := newRelay(t, home, time.Second)

	resp := r.postSkill(t, commandEvent("turn off everything"))

	assert.Equal(t, "Executing: turn off everything", resp.Text())
}

func TestSlowEndpointTimesOut(t *testing.T) {
	home := &smartHome{delay: 2 * time.Second}
	r := newRelay(t, home, 100*time.Millisecond)

	start := time.Now()
	resp := r.postSkill(t, commandEvent("activate movie scene"))

	assert.Equal(t, "There was an error executing the command", resp.Text())
	assert.True(t, resp.EndSession())
	assert.Less(t, time.Since(start), time.Second)
}

func TestNonActionIntentsNeverForward(t *testing.T) {
	home := &smartHome{}
	r := newRelay(t, home, time.Second)

	events := []string{
		`{"request":{"type":"LaunchRequest"}}`,
		`{"request":{"type":"IntentRequest","intent":{"name":"AMAZON.HelpIntent"}}}`,
		`{"request":{"type":"IntentRequest","intent":{"name":"AMAZON.StopIntent"}}}`,
		`{"request":{"type":"IntentRequest","intent":{"name":"SmartHomeIntent"}}}`,
		`{"request":{"type":"SessionEndedRequest"}}`,
	}
	for _, e := range events {
		r.postSkill(t, e)
	}

	assert.Empty(t, home.received())
}

func TestMetricsExposed(t *testing.T) {
	home := &smartHome{}
	r := newRelay(t, home, time.Second)

	r.postSkill(t, commandEvent("lights on"))

	resp, err := http.Get(r.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `relay_forward_total{result="ok"} 1`)
	assert.Contains(t, string(body), `relay_dispatch_total{outcome="executed",request_type="IntentRequest"} 1`)
}

func TestLambdaHandlerEndToEnd(t *testing.T) {
	home := &smartHome{}
	r := newRelay(t, home, time.Second)
	h := lambdafn.NewHandler(r.dispatcher, zerolog.New(io.Discard))

	var event schema.Event
	require.NoError(t, json.Unmarshal([]byte(commandEvent("lock the front door")), &event))

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, "Executing: lock the front door", resp.Text())
	assert.Equal(t, []string{"lock the front door"}, home.received())
}
