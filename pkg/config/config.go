package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/killallgit/gistapi/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. GISTAPI_SERVER_PORT
const EnvPrefix = "GISTAPI"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		// Set default values
		setDefaults()

		// Set up environment variable reading for overrides
		viper.SetEnvPrefix(EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		// Load config from fixed location (cleaned for safety)
		configPath := filepath.Clean("./config/settings.yaml")
		viper.SetConfigFile(configPath)

		// Try to read the config file
		if err := viper.ReadInConfig(); err != nil {
			// If the config file doesn't exist, just use defaults and env vars
			if !os.IsNotExist(err) {
				initErr = fmt.Errorf("error reading config file %s: %w", configPath, err)
				return
			}
		}

		// Validate the configuration
		if err := validate(); err != nil {
			initErr = fmt.Errorf("invalid configuration: %w", err)
		}
	})

	return initErr
}

// resetForTesting clears viper state and allows Init to run again
func resetForTesting() {
	viper.Reset()
	once = sync.Once{}
	initErr = nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// validate validates the configuration using Viper values
func validate() error {
	if err := validatePort(viper.GetInt("server.port")); err != nil {
		return err
	}

	if err := validateBaseURL(viper.GetString("github.base_url")); err != nil {
		return err
	}

	if err := validateToken(); err != nil {
		return err
	}

	// Auto-correct invalid concurrency
	if viper.GetInt("search.max_concurrency") <= 0 {
		viper.Set("search.max_concurrency", 1)
	}

	// Auto-correct invalid rate limits
	if viper.GetInt("rate_limiting.requests_per_second") <= 0 {
		viper.Set("rate_limiting.requests_per_second", 5)
	}
	if viper.GetInt("rate_limiting.burst") <= 0 {
		viper.Set("rate_limiting.burst", 10)
	}

	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", port))
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.ConfigError("github.base_url", fmt.Sprintf("%q is not a valid URL", raw)).WithCause(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.ConfigError("github.base_url", fmt.Sprintf("%q must use http or https", raw))
	}
	return nil
}

// validateToken rejects placeholder GitHub tokens in production
func validateToken() error {
	env := viper.GetString("environment")
	isProduction := env == "production" || env == "prod"

	placeholders := []string{
		"YOUR_TOKEN_HERE",
		"YOUR_GITHUB_TOKEN",
		"changeme",
		"CHANGEME",
	}

	token := viper.GetString("github.token")
	if token == "" {
		log.Debug().Msg("No GitHub token configured, upstream requests are unauthenticated")
		return nil
	}

	for _, placeholder := range placeholders {
		if token == placeholder {
			if isProduction {
				return apperrors.ConfigError("github.token", "cannot use placeholder values in production")
			}
			log.Warn().Msg("GitHub token is using a placeholder value")
			break
		}
	}

	return nil
}

// Validate checks a Config after command-line overrides have been applied
func (c *Config) Validate() error {
	if err := validatePort(c.Server.Port); err != nil {
		return err
	}

	if err := validateBaseURL(c.GitHub.BaseURL); err != nil {
		return err
	}

	if c.Search.MaxConcurrency <= 0 {
		c.Search.MaxConcurrency = 1
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Environment defaults
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 90*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.max_body_bytes", 1048576)

	// GitHub defaults
	viper.SetDefault("github.base_url", "https://api.github.com/")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.timeout", 30*time.Second)
	viper.SetDefault("github.user_agent", "gistapi/1.0")

	// Search defaults
	viper.SetDefault("search.max_concurrency", 4)
	viper.SetDefault("search.timeout", 60*time.Second)
	viper.SetDefault("search.match_timeout", 2*time.Second)
	viper.SetDefault("search.dedupe_matches", false)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.requests_per_second", 5)
	viper.SetDefault("rate_limiting.burst", 10)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
}
