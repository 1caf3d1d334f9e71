package logging

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/config"
)

// New builds the process logger. Unknown levels fall back to info.
// Format "text" writes human-readable console output, anything else JSON.
func New(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "text" {
		out = zerolog.ConsoleWriter{Out: out}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
