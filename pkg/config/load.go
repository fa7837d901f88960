package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// SHEPHERD_SECTION_FIELD (e.g., SHEPHERD_SERVER_LISTEN_ADDRESS) and always
// take precedence over file-based configuration. An empty path starts from
// the built-in defaults, so the server can run with nothing but environment
// variables.
//
// The loading sequence is:
//  1. Load YAML from file (or start from defaults)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("SHEPHERD_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("SHEPHERD_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("SHEPHERD_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("SHEPHERD_SERVER_MAX_MESSAGE_CHARS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxMessageChars = i
		}
	}

	// Provider overrides. The API key is expected to arrive this way in
	// production so the credential never lands in a config file.
	if val := os.Getenv("SHEPHERD_PROVIDER_API_KEY"); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv("SHEPHERD_PROVIDER_BASE_URL"); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv("SHEPHERD_PROVIDER_MODEL"); val != "" {
		cfg.Provider.Model = val
	}

	// Quota overrides
	if val := os.Getenv("SHEPHERD_QUOTA_SHORT_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Quota.ShortWindow = d
		}
	}
	if val := os.Getenv("SHEPHERD_QUOTA_SHORT_WINDOW_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Quota.ShortWindowMax = i
		}
	}
	if val := os.Getenv("SHEPHERD_QUOTA_DAILY_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Quota.DailyMax = i
		}
	}
	if val := os.Getenv("SHEPHERD_QUOTA_DAILY_COST_LIMIT_CENTS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.DailyCostLimitCents = i
		}
	}

	// Storage overrides
	if val := os.Getenv("SHEPHERD_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("SHEPHERD_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLitePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("SHEPHERD_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SHEPHERD_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SHEPHERD_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
