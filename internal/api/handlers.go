package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

// Dispatcher turns a skill event into a spoken response.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *schema.Event) schema.Response
}

// Handler serves the relay's HTTP endpoints.
type Handler struct {
	dispatcher   Dispatcher
	maxBodyBytes int64
	logger       zerolog.Logger
}

// NewHandler creates a Handler.
func NewHandler(d Dispatcher, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		dispatcher:   d,
		maxBodyBytes: cfg.Limits.MaxBodyBytes,
		logger:       logger,
	}
}

// HandleHealthGet reports liveness.
func (h *Handler) HandleHealthGet(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, schema.HealthResponse{Status: "ok"})
}

// HandleHealthPost reports liveness for clients that probe with POST.
func (h *Handler) HandleHealthPost(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, schema.HealthResponse{Status: "ok"})
}

// HandleSkill decodes a skill event, dispatches it and writes the response.
// Dispatch outcomes, including forwarding failures, are always 200.
func (h *Handler) HandleSkill(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	defer r.Body.Close()

	event, err := ParseSkillEvent(r)
	if err != nil {
		if httpErr, ok := IsHTTPError(err); ok {
			h.logger.Warn().Err(err).Int("status", httpErr.Status).Msg("Rejected skill request")
			WriteError(w, httpErr.Status, httpErr.Message)
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if event.Request.RequestID == "" {
		event.Request.RequestID = r.Header.Get(RequestIDHeader)
	}

	WriteJSON(w, http.StatusOK, h.dispatcher.Dispatch(r.Context(), event))
}
