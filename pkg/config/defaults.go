package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxMessageChars = 2000

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Provider defaults
	DefaultProviderBaseURL    = "https://api.anthropic.com"
	DefaultProviderModel      = "claude-3-5-haiku-latest"
	DefaultProviderMaxTokens  = 1024
	DefaultProviderTimeout    = 60 * time.Second
	DefaultProviderMaxRetries = 3

	// Quota defaults
	DefaultQuotaShortWindow    = 2 * time.Minute
	DefaultQuotaShortWindowMax = 10
	DefaultQuotaDailyMax       = 200
	DefaultQuotaDailyCostCents = int64(100)
	DefaultQuotaEstCostCents   = int64(1)
	DefaultQuotaRetention      = 48 * time.Hour
	DefaultQuotaSweepSchedule  = "0 * * * *"

	// Storage defaults
	DefaultStorageBackend    = "memory"
	DefaultStorageSQLitePath = "data/usage.db"

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// DefaultConfig returns a configuration populated entirely with defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any zero-valued fields.
// It is called automatically by LoadConfig.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxMessageChars == 0 {
		cfg.Server.MaxMessageChars = DefaultMaxMessageChars
	}

	// CORS
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.Enabled = DefaultCORSEnabled
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID", "X-Caller-ID"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Provider
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = DefaultProviderBaseURL
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultProviderModel
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = DefaultProviderMaxTokens
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = DefaultProviderTimeout
	}
	if cfg.Provider.MaxRetries == 0 {
		cfg.Provider.MaxRetries = DefaultProviderMaxRetries
	}

	// Quota
	if cfg.Quota.ShortWindow == 0 {
		cfg.Quota.ShortWindow = DefaultQuotaShortWindow
	}
	if cfg.Quota.ShortWindowMax == 0 {
		cfg.Quota.ShortWindowMax = DefaultQuotaShortWindowMax
	}
	if cfg.Quota.DailyMax == 0 {
		cfg.Quota.DailyMax = DefaultQuotaDailyMax
	}
	if cfg.Quota.DailyCostLimitCents == 0 {
		cfg.Quota.DailyCostLimitCents = DefaultQuotaDailyCostCents
	}
	if cfg.Quota.EstimatedCostCents == 0 {
		cfg.Quota.EstimatedCostCents = DefaultQuotaEstCostCents
	}
	if cfg.Quota.Retention == 0 {
		cfg.Quota.Retention = DefaultQuotaRetention
	}
	if cfg.Quota.SweepSchedule == "" {
		cfg.Quota.SweepSchedule = DefaultQuotaSweepSchedule
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultStorageSQLitePath
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
