package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/parable-systems/shepherd/pkg/config"
	"github.com/parable-systems/shepherd/pkg/intent"
	"github.com/parable-systems/shepherd/pkg/prompts"
	"github.com/parable-systems/shepherd/pkg/provider"
	"github.com/parable-systems/shepherd/pkg/proxy"
	"github.com/parable-systems/shepherd/pkg/quota"
	"github.com/parable-systems/shepherd/pkg/scripture"
	"github.com/parable-systems/shepherd/pkg/server"
	"github.com/parable-systems/shepherd/pkg/storage"
	"github.com/parable-systems/shepherd/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Shepherd chat proxy server",
	Long: `Start the Shepherd chat proxy server with the specified configuration.

The server listens on the configured address and forwards chat messages to the
upstream completion API after quota evaluation and intent classification.

Examples:
  # Start with default config
  shepherd run

  # Start with custom config
  shepherd run --config /etc/shepherd/config.yaml

  # Override listen address
  shepherd run --listen 0.0.0.0:8080

  # Validate config without starting server
  shepherd run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Shepherd v%s\n", Version)
	if cfgFile != "" {
		fmt.Printf("Loading configuration from: %s\n", cfgFile)
	}
	fmt.Println("✓ Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Quota tracker and periodic sweep
	store := quota.NewStore()
	tracker := quota.NewTracker(quota.Config{
		ShortWindow:         cfg.Quota.ShortWindow,
		ShortWindowMax:      cfg.Quota.ShortWindowMax,
		DailyMax:            cfg.Quota.DailyMax,
		DailyCostLimitCents: cfg.Quota.DailyCostLimitCents,
		EstimatedCostCents:  cfg.Quota.EstimatedCostCents,
	}, store, quota.NewMetrics(), logger)

	sweeper := quota.NewSweeper(tracker, cfg.Quota.SweepSchedule, cfg.Quota.Retention, logger)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start quota sweeper: %w", err)
	}
	defer sweeper.Stop()

	// Intent classifier, with optional rules file and hot reload
	rules := intent.DefaultRules()
	if cfg.Intent.RulesFile != "" {
		rules, err = intent.LoadRules(cfg.Intent.RulesFile)
		if err != nil {
			return fmt.Errorf("failed to load intent rules: %w", err)
		}
	}
	classifier := intent.NewClassifier(rules, logger)

	if cfg.Intent.RulesFile != "" && cfg.Intent.Watch {
		watcher, err := intent.NewRulesWatcher(cfg.Intent.RulesFile, classifier, logger)
		if err != nil {
			return fmt.Errorf("failed to create rules watcher: %w", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Warn("rules watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching intent rules: %s\n", cfg.Intent.RulesFile)
	}

	// Prompt templates
	registry := prompts.NewRegistry()
	if cfg.Prompts.File != "" {
		registry, err = prompts.LoadRegistry(cfg.Prompts.File)
		if err != nil {
			return fmt.Errorf("failed to load prompt templates: %w", err)
		}
	}

	// Upstream completion client
	client, err := provider.NewClient(cfg.Provider, logger)
	if err != nil {
		return fmt.Errorf("failed to create provider client: %w", err)
	}
	defer client.Close()
	fmt.Printf("✓ Provider initialized (model %s)\n", cfg.Provider.Model)

	// Usage journal
	var journal storage.Journal
	switch cfg.Storage.Backend {
	case "sqlite":
		journal, err = storage.NewSQLiteJournal(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open usage journal: %w", err)
		}
	default:
		journal = storage.NewMemoryJournal()
	}
	defer journal.Close()
	fmt.Printf("✓ Usage journal initialized (%s)\n", cfg.Storage.Backend)

	// HTTP handlers and server
	chatHandler := proxy.NewChatHandler(proxy.ChatHandlerDeps{
		Tracker:    tracker,
		Classifier: classifier,
		Prompts:    registry,
		Completer:  client,
		Extractor:  scripture.NewExtractor(),
		Journal:    journal,
		Metrics:    proxy.NewMetrics(),
		ServerCfg:  cfg.Server,
		ProvCfg:    cfg.Provider,
		Logger:     logger,
	})
	statusHandler := proxy.NewStatusHandler(tracker, logger)
	router := proxy.NewRouter(cfg, chatHandler, statusHandler, logger)

	srv := server.New(cfg.Server, router, logger)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}
