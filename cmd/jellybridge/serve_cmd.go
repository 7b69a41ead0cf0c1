package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Nomadcxx/jellybridge/internal/api"
	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/engine"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/metrics"
	"github.com/Nomadcxx/jellybridge/internal/paths"
	"github.com/Nomadcxx/jellybridge/internal/settings"
	"github.com/Nomadcxx/jellybridge/internal/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API the browser extension talks to.

Edits to the config file are picked up while running and clear the
resolved URL cache. Settings saved through PUT /api/v1/settings take
precedence over the file.

Examples:
  jellybridge serve                        # Listen on api.addr from config
  jellybridge serve --addr 0.0.0.0:8097    # Listen on all interfaces`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (overrides api.addr)")

	return cmd
}

func runServe(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.API.Addr
	}

	logFile := cfg.Logging.File
	if logFile == "" {
		if logFile, err = paths.LogPath(); err != nil {
			return fmt.Errorf("unable to get log path: %w", err)
		}
	}
	logger, err := logging.New(logging.Config{
		Level:      logLevel(cfg.Logging.Level),
		File:       logFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("unable to create logger: %w", err)
	}
	defer logger.Close()

	metrics.Register(prometheus.DefaultRegisterer)

	eng := engine.New(engine.Options{Config: cfg.Engine, Logger: logger})

	store, err := settings.Open()
	if err != nil {
		return fmt.Errorf("failed to open settings database: %w", err)
	}
	defer store.Close()

	manager, err := settings.NewManager(ctx, store, cfg.Snapshot(), eng, logger)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cfgPath, err := configPath()
	if err != nil {
		return fmt.Errorf("unable to get config path: %w", err)
	}
	w, err := watcher.NewWatcher(cfgPath, reloadHandler(cfgPath, manager, logger), watcher.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	defer w.Close()
	go func() {
		if err := w.Start(ctx); err != nil {
			logger.Error("serve", "Config watcher stopped", err)
		}
	}()

	server := api.NewServer(api.Options{
		Engine:   eng,
		Settings: manager,
		Config:   cfg.API,
		Logger:   logger,
		Gatherer: prometheus.DefaultGatherer,
		Version:  version,
	})

	snap := manager.Current()
	logger.Info("serve", "Starting jellybridge",
		logging.F("version", version),
		logging.F("addr", addr),
		logging.F("server_kind", snap.Server.ServerKind()),
		logging.F("server_configured", snap.Server.IsConfigured()),
		logging.F("jellyseerr_configured", snap.Jellyseerr.IsConfigured()),
		logging.F("settings_db", store.Path()),
		logging.F("log_file", logger.FilePath()))

	if err := server.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("serve", "Shutdown complete")
	return nil
}

// reloadHandler re-reads the config file on change, hands its endpoint
// settings to the manager and applies a changed log level.
func reloadHandler(path string, manager *settings.Manager, logger *logging.Logger) watcher.Handler {
	return watcher.HandlerFunc(func(event watcher.FileEvent) error {
		if event.Type == watcher.EventDelete {
			logger.Warn("serve", "Config file removed, keeping current settings", logging.F("path", path))
			return nil
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("reload config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("reload config: %w", err)
		}
		manager.Reload(cfg.Snapshot())
		if level := logging.ParseLevel(logLevel(cfg.Logging.Level)); level != logger.GetLevel() {
			logger.SetLevel(level)
			logger.Info("serve", "Log level changed", logging.F("level", level))
		}
		logger.Info("serve", "Config reloaded", logging.F("path", path))
		return nil
	})
}

func logLevel(configured string) string {
	if verbose {
		return "debug"
	}
	return configured
}
