package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/smart-home-relay/alexa-relay/internal/config"
	"github.com/smart-home-relay/alexa-relay/internal/dispatch"
	"github.com/smart-home-relay/alexa-relay/internal/forwarder"
	"github.com/smart-home-relay/alexa-relay/internal/lambdafn"
	"github.com/smart-home-relay/alexa-relay/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(config.Default().Logging, os.Stdout)
		fallback.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := logging.New(cfg.Logging, os.Stdout)

	fwd, err := forwarder.NewHTTP(&cfg.Forwarder, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", cfg.Forwarder.URL).Msg("Invalid smart-home endpoint")
	}

	h := lambdafn.NewHandler(dispatch.New(fwd, nil, logger), logger)
	lambda.Start(h.Handle)
}
