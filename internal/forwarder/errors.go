package forwarder

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyCommand indicates Forward was called without command text.
var ErrEmptyCommand = errors.New("empty command")

// ErrForwardTimeout indicates the smart-home endpoint did not answer in time.
var ErrForwardTimeout = errors.New("forward timeout")

// ErrForwardUnavailable indicates a connection or transport failure.
var ErrForwardUnavailable = errors.New("smart-home endpoint unavailable")

// ErrUnsupportedScheme indicates the configured endpoint is neither http nor https.
var ErrUnsupportedScheme = errors.New("unsupported endpoint scheme")

// IsTimeout reports whether err was caused by the forwarding deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrForwardTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// StatusError reports a non-2xx answer from the smart-home endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}
