package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSmartHomeURL is used when SMART_HOME_URL is not set.
const DefaultSmartHomeURL = "https://home.yourdomain.com"

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server"`
	Forwarder ForwarderConfig `mapstructure:"forwarder" json:"forwarder"`
	Auth      AuthConfig      `mapstructure:"auth" json:"auth"`
	Limits    LimitsConfig    `mapstructure:"limits" json:"limits"`
	Logging   LoggingConfig   `mapstructure:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen       string        `mapstructure:"listen" json:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	// TrustProxy keys rate limiting on X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trust_proxy" json:"trust_proxy"`
}

// ForwarderConfig holds the smart-home endpoint settings.
type ForwarderConfig struct {
	URL       string        `mapstructure:"url" json:"url"`
	AuthToken string        `mapstructure:"auth_token" json:"auth_token"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout"`
}

// AuthConfig holds inbound authentication settings for the self-hosted server.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key" json:"api_key"`
}

// LimitsConfig holds request limit settings.
type LimitsConfig struct {
	RequestsPerMinute int   `mapstructure:"requests_per_minute" json:"requests_per_minute"`
	MaxBodyBytes      int64 `mapstructure:"max_body_bytes" json:"max_body_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:       "0.0.0.0:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Forwarder: ForwarderConfig{
			URL:       DefaultSmartHomeURL,
			AuthToken: "",
			Timeout:   5 * time.Second,
		},
		Auth: AuthConfig{
			APIKey: "",
		},
		Limits: LimitsConfig{
			RequestsPerMinute: 30,
			MaxBodyBytes:      8192,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load returns a Config populated with defaults, an optional .env file and environment overrides.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return LoadWithDefaults(nil)
}

// loadDotEnv loads filenames (default ".env") into the environment without
// overriding variables that are already set. A missing file is not an error.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadWithDefaults loads configuration using defaults and optional overrides map (for tests).
func LoadWithDefaults(overrides map[string]interface{}) (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if overrides != nil {
		raw, err := json.Marshal(overrides)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SMART_HOME_URL"); v != "" {
		cfg.Forwarder.URL = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		cfg.Forwarder.AuthToken = v
	}
	if v := os.Getenv("RELAY_FORWARD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Forwarder.Timeout = d
		}
	}
	if v := os.Getenv("RELAY_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("RELAY_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("RELAY_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("RELAY_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.TrustProxy = b
		}
	}
	if v := os.Getenv("RELAY_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("RELAY_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RELAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
