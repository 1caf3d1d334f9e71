package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smart-home-relay/alexa-relay/internal/api"
	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/dispatch"
	"github.com/smart-home-relay/alexa-relay/internal/forwarder"
	"github.com/smart-home-relay/alexa-relay/internal/logging"
	"github.com/smart-home-relay/alexa-relay/internal/metrics"
)

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging, os.Stdout)

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("endpoint", cfg.Forwarder.URL).
		Dur("forward_timeout", cfg.Forwarder.Timeout).
		Str("log_level", cfg.Logging.Level).
		Msg("Starting relay server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	transport, err := forwarder.NewHTTPTransport(&cfg.Forwarder)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := transport.Health(ctx); err != nil {
		logger.Warn().Err(err).Msg("Endpoint health check failed - server will start but commands may fail")
	} else {
		logger.Info().Str("endpoint", transport.Endpoint()).Msg("Endpoint connection verified")
	}
	cancel()

	fwd := forwarder.New(transport, &cfg.Forwarder, m, logger)
	dispatcher := dispatch.New(fwd, m, logger)
	router := api.NewRouter(cfg, dispatcher, reg, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Listen).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// loadConfig starts from defaults, .env and environment and overlays every
// key viper saw from a config file, an environment variable or a changed flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if viper.IsSet("server.listen") {
		cfg.Server.Listen = viper.GetString("server.listen")
	}
	if d := viper.GetDuration("server.read_timeout"); viper.IsSet("server.read_timeout") && d > 0 {
		cfg.Server.ReadTimeout = d
	}
	if d := viper.GetDuration("server.write_timeout"); viper.IsSet("server.write_timeout") && d > 0 {
		cfg.Server.WriteTimeout = d
	}
	if viper.IsSet("server.trust_proxy") {
		cfg.Server.TrustProxy = viper.GetBool("server.trust_proxy")
	}
	if viper.IsSet("forwarder.url") {
		cfg.Forwarder.URL = viper.GetString("forwarder.url")
	}
	if viper.IsSet("forwarder.auth_token") {
		cfg.Forwarder.AuthToken = viper.GetString("forwarder.auth_token")
	}
	if d := viper.GetDuration("forwarder.timeout"); viper.IsSet("forwarder.timeout") && d > 0 {
		cfg.Forwarder.Timeout = d
	}
	if viper.IsSet("auth.api_key") {
		cfg.Auth.APIKey = viper.GetString("auth.api_key")
	}
	if viper.IsSet("limits.requests_per_minute") {
		cfg.Limits.RequestsPerMinute = viper.GetInt("limits.requests_per_minute")
	}
	if n := viper.GetInt64("limits.max_body_bytes"); viper.IsSet("limits.max_body_bytes") && n > 0 {
		cfg.Limits.MaxBodyBytes = n
	}
	if viper.IsSet("logging.level") {
		cfg.Logging.Level = viper.GetString("logging.level")
	}
	if viper.IsSet("logging.format") {
		cfg.Logging.Format = viper.GetString("logging.format")
	}

	if cfg.Forwarder.URL == "" {
		cfg.Forwarder.URL = config.DefaultSmartHomeURL
	}

	return cfg, nil
}
