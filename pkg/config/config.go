package config

import "time"

// Config is the root configuration structure for Shepherd.
// It contains all configuration sections for the HTTP server, the upstream
// completion provider, quota enforcement, intent classification, prompt
// templates, usage storage, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Provider contains configuration for the upstream completion API.
	Provider ProviderConfig `yaml:"provider"`

	// Quota contains per-caller rate and cost limiting configuration.
	Quota QuotaConfig `yaml:"quota"`

	// Intent contains intent classifier configuration including the
	// optional keyword rules file and hot-reload setting.
	Intent IntentConfig `yaml:"intent"`

	// Prompts contains the optional prompt template override file.
	Prompts PromptsConfig `yaml:"prompts"`

	// Storage contains usage journal configuration.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Default: 60s (the upstream model call happens inside it)
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size. Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxMessageChars bounds the length of an inbound chat message.
	// Longer messages are rejected before classification. Default: 2000
	MaxMessageChars int `yaml:"max_message_chars"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS settings for the chat endpoint.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `yaml:"max_age"`
}

// ProviderConfig contains configuration for the completion API client.
type ProviderConfig struct {
	// BaseURL is the provider API base URL.
	// Default: "https://api.anthropic.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the provider credential. Usually supplied through the
	// SHEPHERD_PROVIDER_API_KEY environment variable rather than the file.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier sent with every completion request.
	Model string `yaml:"model"`

	// MaxTokens caps the completion length. Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the per-request timeout for the upstream call. Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for transient upstream failures.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// QuotaConfig contains per-caller quota enforcement configuration.
type QuotaConfig struct {
	// ShortWindow is the burst-control window duration. Default: 2m
	ShortWindow time.Duration `yaml:"short_window"`

	// ShortWindowMax is the maximum accepted requests per short window.
	// Default: 10
	ShortWindowMax int `yaml:"short_window_max"`

	// DailyMax is the maximum accepted requests per caller per day.
	// Default: 200
	DailyMax int `yaml:"daily_max"`

	// DailyCostLimitCents is the per-caller daily cost budget in cents.
	// Default: 100
	DailyCostLimitCents int64 `yaml:"daily_cost_limit_cents"`

	// EstimatedCostCents is the fixed cost charged per accepted request.
	// Default: 1
	EstimatedCostCents int64 `yaml:"estimated_cost_cents"`

	// Retention is how long stale caller records are kept before the sweep
	// removes them. Default: 48h
	Retention time.Duration `yaml:"retention"`

	// SweepSchedule is the cron expression for the periodic sweep.
	// Default: "0 * * * *" (hourly)
	SweepSchedule string `yaml:"sweep_schedule"`
}

// IntentConfig contains intent classifier configuration.
type IntentConfig struct {
	// RulesFile is an optional YAML file overriding the built-in keyword
	// rules. Empty means built-in defaults.
	RulesFile string `yaml:"rules_file"`

	// Watch reloads the rules file on change when true.
	Watch bool `yaml:"watch"`
}

// PromptsConfig contains prompt template configuration.
type PromptsConfig struct {
	// File is an optional YAML file overriding the built-in templates,
	// keyed by intent label. Empty means built-in defaults.
	File string `yaml:"file"`
}

// StorageConfig contains usage journal configuration.
type StorageConfig struct {
	// Backend selects the journal backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/usage.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text". Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served. Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path. Default: "/metrics"
	Path string `yaml:"path"`
}
