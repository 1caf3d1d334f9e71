package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ParseRequestBody decodes the request body into the provided value based on Content-Type.
// An empty Content-Type is treated as JSON, which is what the voice platform sends.
func ParseRequestBody(r *http.Request, v interface{}) error {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	switch strings.ToLower(mediaType) {
	case "", "application/json":
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return decodeError(err)
		}
	case "application/msgpack", "application/x-msgpack":
		if err := msgpack.NewDecoder(r.Body).Decode(v); err != nil {
			return decodeError(err)
		}
	default:
		return &HTTPError{Status: http.StatusUnsupportedMediaType, Message: "Unsupported content type"}
	}

	return nil
}

// ParseSkillEvent decodes a skill event from the HTTP request.
func ParseSkillEvent(r *http.Request) (*schema.Event, error) {
	var event schema.Event

	if err := ParseRequestBody(r, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"}
	}
	return &HTTPError{Status: http.StatusBadRequest, Message: "Invalid request body"}
}

// IsHTTPError checks whether an error is an *HTTPError.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
