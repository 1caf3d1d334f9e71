package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-home-relay/alexa-relay/internal/config"
)

type capturedRequest struct {
	method        string
	path          string
	contentType   string
	contentLength int64
	authValues    []string
	authPresent   bool
	body          string
}

func newCapturingServer(t *testing.T, status int, reply string) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()

	captured := make(chan capturedRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		values, present := r.Header[AuthHeader]
		captured <- capturedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			contentType:   r.Header.Get("Content-Type"),
			contentLength: r.ContentLength,
			authValues:    values,
			authPresent:   present,
			body:          string(body),
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	return server, captured
}

func TestSend_Success(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK, `{"status":"received"}`)

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
	require.NoError(t, err)

	body, err := transport.Send(context.Background(), "turn on living room light")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"received"}`, body)

	req := <-captured
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/alexa", req.path)
	assert.Equal(t, "text/plain", req.contentType)
	assert.Equal(t, int64(len("turn on living room light")), req.contentLength)
	assert.Equal(t, "turn on living room light", req.body)
}

func TestSend_ContentLengthIsByteLength(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK, "ok")

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
	require.NoError(t, err)

	command := "encendé la luz del baño 💡"
	_, err = transport.Send(context.Background(), command)
	require.NoError(t, err)

	req := <-captured
	assert.Equal(t, int64(len([]byte(command))), req.contentLength)
	assert.NotEqual(t, int64(len([]rune(command))), req.contentLength)
	assert.Equal(t, command, req.body)
}

func TestSend_AuthHeader(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		server, captured := newCapturingServer(t, http.StatusOK, "ok")

		transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL, AuthToken: "s3cret"})
		require.NoError(t, err)

		_, err = transport.Send(context.Background(), "lights off")
		require.NoError(t, err)

		req := <-captured
		assert.True(t, req.authPresent)
		assert.Equal(t, []string{"s3cret"}, req.authValues)
	})

	t.Run("not configured", func(t *testing.T) {
		server, captured := newCapturingServer(t, http.StatusOK, "ok")

		transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
		require.NoError(t, err)

		_, err = transport.Send(context.Background(), "lights off")
		require.NoError(t, err)

		req := <-captured
		assert.False(t, req.authPresent)
	})
}

func TestSend_TrailingSlashBase(t *testing.T) {
	server, captured := newCapturingServer(t, http.StatusOK, "ok")

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/alexa", transport.Endpoint())

	_, err = transport.Send(context.Background(), "lights off")
	require.NoError(t, err)
	assert.Equal(t, "/alexa", (<-captured).path)
}

func TestSend_NonSuccessStatusKeepsBody(t *testing.T) {
	server, _ := newCapturingServer(t, http.StatusServiceUnavailable, "queue full, try again")

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
	require.NoError(t, err)

	body, err := transport.Send(context.Background(), "lights off")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "queue full, try again", body)
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = transport.Send(ctx, "lights off")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForwardTimeout)
}

func TestSend_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: url})
	require.NoError(t, err)

	_, err = transport.Send(context.Background(), "lights off")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForwardUnavailable)
	assert.False(t, IsTimeout(err))
}

func TestNewHTTPTransport_Scheme(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https", url: "https://home.example.com"},
		{name: "http with port", url: "http://192.168.1.10:8080"},
		{name: "ftp", url: "ftp://home.example.com", wantErr: ErrUnsupportedScheme},
		{name: "no scheme", url: "home.example.com", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: tt.url})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url+"/alexa", transport.Endpoint())
		})
	}
}

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: server.URL})
	require.NoError(t, err)

	require.NoError(t, transport.Health(context.Background()))
}

func TestHealth_Failure(t *testing.T) {
	transport, err := NewHTTPTransport(&config.ForwarderConfig{URL: "http://localhost:9999"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.Error(t, transport.Health(ctx))
}
