package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Self-hosted voice skill command relay",
	Long: `relay-server answers voice skill requests over HTTPS and forwards
spoken smart-home commands to a home automation endpoint.

Start the server:
  relay-server

Start with custom settings:
  relay-server --listen 0.0.0.0:8080 --endpoint https://home.example.com

Use environment variables:
  SMART_HOME_URL=https://home.example.com AUTH_TOKEN=secret relay-server`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relay-server %s\n", Version)
		fmt.Printf("  Commit:     %s\n", Commit)
		fmt.Printf("  Build Date: %s\n", BuildDate)
	},
}

type binding struct {
	key  string
	flag string
	envs []string
}

var bindings = []binding{
	{"server.listen", "listen", []string{"RELAY_LISTEN"}},
	{"server.read_timeout", "read-timeout", []string{"RELAY_READ_TIMEOUT"}},
	{"server.write_timeout", "write-timeout", []string{"RELAY_WRITE_TIMEOUT"}},
	{"server.trust_proxy", "trust-proxy", []string{"RELAY_TRUST_PROXY"}},
	{"forwarder.url", "endpoint", []string{"SMART_HOME_URL", "RELAY_ENDPOINT"}},
	{"forwarder.auth_token", "auth-token", []string{"AUTH_TOKEN", "RELAY_AUTH_TOKEN"}},
	{"forwarder.timeout", "forward-timeout", []string{"RELAY_FORWARD_TIMEOUT"}},
	{"auth.api_key", "api-key", []string{"RELAY_API_KEY"}},
	{"limits.requests_per_minute", "rate-limit", []string{"RELAY_RATE_LIMIT"}},
	{"limits.max_body_bytes", "max-body-bytes", []string{"RELAY_MAX_BODY_BYTES"}},
	{"logging.level", "log-level", []string{"RELAY_LOG_LEVEL"}},
	{"logging.format", "log-format", []string{"RELAY_LOG_FORMAT"}},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.Flags().String("listen", "0.0.0.0:8080", "Server listen address")
	rootCmd.Flags().Duration("read-timeout", 0, "HTTP read timeout")
	rootCmd.Flags().Duration("write-timeout", 0, "HTTP write timeout")

	rootCmd.Flags().Bool("trust-proxy", false, "Key rate limiting on X-Forwarded-For/X-Real-IP from a trusted reverse proxy")

	rootCmd.Flags().String("endpoint", "", "Smart-home endpoint base URL")
	rootCmd.Flags().String("auth-token", "", "Token sent to the endpoint as X-Auth-Token")
	rootCmd.Flags().Duration("forward-timeout", 0, "Per-command forwarding deadline")

	rootCmd.Flags().String("api-key", "", "API key for inbound requests (empty = no auth)")
	rootCmd.Flags().Int("rate-limit", 0, "Skill requests per minute per client (0 = unlimited)")
	rootCmd.Flags().Int64("max-body-bytes", 0, "Maximum skill request body size")

	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "json", "Log format (json, text)")

	bindFlags()

	rootCmd.AddCommand(versionCmd)
}

func bindFlags() {
	for _, b := range bindings {
		flag := rootCmd.Flags().Lookup(b.flag)
		if flag == nil {
			continue
		}
		_ = viper.BindPFlag(b.key, flag)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RELAY")
	viper.AutomaticEnv()

	for _, b := range bindings {
		_ = viper.BindEnv(append([]string{b.key}, b.envs...)...)
	}

	bindFlags()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
