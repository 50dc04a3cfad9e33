package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AuthMode selects the edge authentication predicate for the status webhook
type AuthMode string

const (
	// AuthModeToken compares a shared secret from the
	// x-goog-pubsub-verification-token header in constant time.
	AuthModeToken AuthMode = "token"

	// AuthModeIdentityToken verifies a bearer identity token for audience,
	// issuer and service account.
	AuthModeIdentityToken AuthMode = "identity_token"

	// AuthModeNone disables webhook authentication. Local development only.
	AuthModeNone AuthMode = "none"
)

// Config holds the full service configuration
type Config struct {
	// ListenAddr is the HTTP bind address
	ListenAddr string `yaml:"listen_addr"`

	// DataDir is the directory holding the persistent store
	DataDir string `yaml:"data_dir"`

	// ServiceName is the label emitted on structured logs
	ServiceName string `yaml:"service_name"`

	// AuthMode selects the webhook authentication predicate
	AuthMode AuthMode `yaml:"auth_mode"`

	// VerificationToken is the shared secret for token mode
	VerificationToken string `yaml:"verification_token"`

	// Identity token expectations for identity_token mode
	ExpectedAudience            string `yaml:"expected_audience"`
	ExpectedIssuer              string `yaml:"expected_issuer"`
	ExpectedServiceAccountEmail string `yaml:"expected_service_account_email"`

	// ExecutionEnabled toggles the downstream execution trigger
	ExecutionEnabled bool `yaml:"execution_enabled"`

	// ExecutionEndpoint is the URL the trigger posts to. When empty the
	// trigger logs the signal instead of sending it.
	ExecutionEndpoint string `yaml:"execution_endpoint"`

	// LogLevel is the structured-log verbosity
	LogLevel string `yaml:"log_level"`

	// LogJSON selects JSON log output (console output when false)
	LogJSON bool `yaml:"log_json"`
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		ListenAddr:       ":8080",
		DataDir:          "/var/lib/foreman",
		ServiceName:      "foreman",
		AuthMode:         AuthModeToken,
		ExecutionEnabled: true,
		LogLevel:         "info",
		LogJSON:          true,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays FOREMAN_* environment variables onto cfg
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	setString("FOREMAN_LISTEN_ADDR", &cfg.ListenAddr)
	setString("FOREMAN_DATA_DIR", &cfg.DataDir)
	setString("FOREMAN_SERVICE_NAME", &cfg.ServiceName)
	setString("FOREMAN_VERIFICATION_TOKEN", &cfg.VerificationToken)
	setString("FOREMAN_EXPECTED_AUDIENCE", &cfg.ExpectedAudience)
	setString("FOREMAN_EXPECTED_ISSUER", &cfg.ExpectedIssuer)
	setString("FOREMAN_EXPECTED_SERVICE_ACCOUNT_EMAIL", &cfg.ExpectedServiceAccountEmail)
	setString("FOREMAN_EXECUTION_ENDPOINT", &cfg.ExecutionEndpoint)
	setString("FOREMAN_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := os.LookupEnv("FOREMAN_AUTH_MODE"); ok {
		cfg.AuthMode = AuthMode(v)
	}
	if v, ok := os.LookupEnv("FOREMAN_EXECUTION_ENABLED"); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.ExecutionEnabled = parsed
		}
	}
	if v, ok := os.LookupEnv("FOREMAN_LOG_JSON"); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.LogJSON = parsed
		}
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch c.AuthMode {
	case AuthModeToken:
		if c.VerificationToken == "" {
			return fmt.Errorf("verification_token is required for auth_mode %q", c.AuthMode)
		}
	case AuthModeIdentityToken:
		if c.ExpectedAudience == "" {
			return fmt.Errorf("expected_audience is required for auth_mode %q", c.AuthMode)
		}
	case AuthModeNone:
	default:
		return fmt.Errorf("unknown auth_mode %q", c.AuthMode)
	}

	return nil
}
