package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/dispatch"
	"github.com/smart-home-relay/alexa-relay/internal/forwarder"
	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

var (
	serverURL  string
	apiKey     string
	output     string
	useMsgpack bool

	endpointURL    string
	authToken      string
	forwardTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "relay-ctl",
	Short: "Voice skill relay management tool",
	Long: `relay-ctl drives a relay-server or the smart-home endpoint directly.

Commands:
  launch      Send a launch event to the relay
  intent      Send an intent event to the relay
  send        Forward a command straight to the smart-home endpoint
  health      Check relay or endpoint health
  bench       Load the relay and report latency`,
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Send a launch event to the relay",
	Args:  cobra.NoArgs,
	RunE:  runLaunch,
}

var intentCmd = &cobra.Command{
	Use:   "intent [name] [command]",
	Short: "Send an intent event to the relay",
	Long: `Send an intent event to the relay.

Examples:
  relay-ctl intent SmartHomeIntent "turn on the living room light"
  relay-ctl intent AMAZON.HelpIntent`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIntent,
}

var sendCmd = &cobra.Command{
	Use:   "send [command]",
	Short: "Forward a command straight to the smart-home endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check relay or endpoint health",
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Relay server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json")

	rootCmd.PersistentFlags().StringVar(&endpointURL, "endpoint", "", "Smart-home endpoint URL (default: SMART_HOME_URL)")
	rootCmd.PersistentFlags().StringVar(&authToken, "auth-token", "", "Endpoint token (default: AUTH_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&forwardTimeout, "timeout", 0, "Forwarding deadline (default: RELAY_FORWARD_TIMEOUT or 5s)")

	launchCmd.Flags().BoolVar(&useMsgpack, "msgpack", false, "Encode the event as MessagePack")
	intentCmd.Flags().BoolVar(&useMsgpack, "msgpack", false, "Encode the event as MessagePack")
	healthCmd.Flags().Bool("direct", false, "Probe the smart-home endpoint instead of the relay")

	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(intentCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(healthCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	return postEvent(cmd.OutOrStdout(), newEvent(schema.RequestTypeLaunch, "", ""))
}

func runIntent(cmd *cobra.Command, args []string) error {
	command := ""
	if len(args) == 2 {
		command = args[1]
	}
	return postEvent(cmd.OutOrStdout(), newEvent(schema.RequestTypeIntent, args[0], command))
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := forwarderConfig()
	if err != nil {
		return err
	}

	fwd, err := forwarder.NewHTTP(cfg, nil, zerolog.Nop())
	if err != nil {
		return err
	}

	body, err := fwd.Forward(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if direct, _ := cmd.Flags().GetBool("direct"); direct {
		cfg, err := forwarderConfig()
		if err != nil {
			return err
		}
		transport, err := forwarder.NewHTTPTransport(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
		defer cancel()
		if err := transport.Health(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Endpoint: ok (%s)\n", transport.Endpoint())
		return nil
	}

	resp, err := makeRequest(http.MethodGet, serverURL+"/v1/health", "", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Fprintln(out, string(resp))
		return nil
	}

	var health schema.HealthResponse
	if err := json.Unmarshal(resp, &health); err != nil {
		return fmt.Errorf("invalid health response: %w", err)
	}
	fmt.Fprintf(out, "Status: %s\n", health.Status)
	return nil
}

// forwarderConfig resolves endpoint settings from flags, then the environment.
func forwarderConfig() (*config.ForwarderConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fc := cfg.Forwarder
	if endpointURL != "" {
		fc.URL = endpointURL
	}
	if authToken != "" {
		fc.AuthToken = authToken
	}
	if forwardTimeout > 0 {
		fc.Timeout = forwardTimeout
	}
	return &fc, nil
}

func newEvent(requestType, intentName, command string) schema.Event {
	event := schema.Event{
		Version: schema.ResponseVersion,
		Request: schema.EventRequest{
			Type:      requestType,
			RequestID: "relay-ctl." + uuid.NewString(),
			Locale:    "en-US",
		},
	}

	if requestType == schema.RequestTypeIntent {
		event.Request.Intent = &schema.Intent{Name: intentName}
		if command != "" {
			event.Request.Intent.Slots = map[string]schema.Slot{
				dispatch.CommandSlot: {Name: dispatch.CommandSlot, Value: command},
			}
		}
	}

	return event
}

func encodeEvent(event schema.Event, asMsgpack bool) ([]byte, string, error) {
	if asMsgpack {
		body, err := msgpack.Marshal(&event)
		return body, "application/msgpack", err
	}
	body, err := json.Marshal(&event)
	return body, "application/json", err
}

func postEvent(out io.Writer, event schema.Event) error {
	body, contentType, err := encodeEvent(event, useMsgpack)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	resp, err := makeRequest(http.MethodPost, serverURL+"/v1/skill", contentType, body)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Fprintln(out, string(resp))
		return nil
	}

	var result schema.Response
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("invalid skill response: %w", err)
	}

	fmt.Fprintf(out, "Speech: %s\n", result.Text())
	fmt.Fprintf(out, "End session: %t\n", result.EndSession())
	return nil
}

func makeRequest(method, url, contentType string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
