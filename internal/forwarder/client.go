package forwarder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smart-home-relay/alexa-relay/internal/config"
)

// CommandPath is appended to the configured base URL for every forwarded command.
const CommandPath = "/alexa"

// AuthHeader carries the pre-shared token when one is configured.
const AuthHeader = "X-Auth-Token"

// HTTPTransport sends commands to the smart-home endpoint over HTTP(S).
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
}

// NewHTTPTransport validates the endpoint and builds a transport for it.
// The scheme of the base URL selects TLS or plaintext.
func NewHTTPTransport(cfg *config.ForwarderConfig) (*HTTPTransport, error) {
	base := strings.TrimSuffix(cfg.URL, "/")

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint url: missing host in %q", cfg.URL)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &HTTPTransport{
		httpClient: &http.Client{Transport: transport},
		baseURL:    base,
		authToken:  cfg.AuthToken,
	}, nil
}

// Endpoint returns the resolved command URL.
func (t *HTTPTransport) Endpoint() string {
	return t.baseURL + CommandPath
}

// Send posts command as a plain-text body and returns the full response body.
// A non-2xx status yields the body together with a *StatusError.
func (t *HTTPTransport) Send(ctx context.Context, command string) (string, error) {
	body := []byte(command)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Byte length, not rune count.
	httpReq.ContentLength = int64(len(body))
	httpReq.Header.Set("Content-Type", "text/plain")
	if t.authToken != "" {
		httpReq.Header.Set(AuthHeader, t.authToken)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(data), &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return string(data), nil
}

// Health checks that the smart-home endpoint is reachable.
func (t *HTTPTransport) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %w", ErrForwardTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrForwardUnavailable, err)
}
