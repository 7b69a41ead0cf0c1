package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/engine"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/paths"
	"github.com/Nomadcxx/jellybridge/internal/settings"
	"github.com/Nomadcxx/jellybridge/internal/ui"
	"github.com/spf13/cobra"
)

//go:embed assets/header.txt
var asciiHeader string

var (
	version = "dev" // Set by build flags: -ldflags="-X main.version=1.0.0"
	cfgFile string
	verbose bool
	noColor bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jellybridge",
		Short: "Media server availability bridge for browser extensions",
		Long: `jellybridge tells a browser extension whether the title on the page is
already on your Emby or Jellyfin server, and links straight to it.

Features:
  - Availability checks by IMDb id, TMDb id, or title and year
  - Prefers your LAN address when it answers, falls back to the public URL
  - Jellyseerr search results annotated with deep links to your server`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				ui.DisableColors()
			}
		},
	}

	originalHelpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "jellybridge" {
			printHeader(version)
		}
		originalHelpFunc(cmd, args)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/jellybridge/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newRequestCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jellybridge %s\n", version)
		},
	}
}

func printHeader(version string) {
	fmt.Println(asciiHeader)
	fmt.Printf("Version: %s\n\n", version)
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return paths.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("unable to get config path: %w", err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes to stderr so command output stays pipeable.
func cliLogger() *logging.Logger {
	level := logging.LevelWarn
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewWriter(os.Stderr, level)
}

// session is the engine plus the active endpoint settings for one command.
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	snap   config.Snapshot
	logger *logging.Logger
}

// newSession loads config, layers saved settings over it and builds an engine.
func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cliLogger()

	snap := cfg.Snapshot()
	store, err := settings.Open()
	if err != nil {
		logger.Warn("cli", "Settings database unavailable, using config file", logging.F("error", err))
	} else {
		defer store.Close()
		if saved, ok, err := store.LoadSnapshot(ctx); err != nil {
			logger.Warn("cli", "Unable to read saved settings", logging.F("error", err))
		} else if ok {
			snap = saved
		}
	}

	return &session{
		cfg:    cfg,
		engine: engine.New(engine.Options{Config: cfg.Engine, Logger: logger}),
		snap:   snap,
		logger: logger,
	}, nil
}
