package main

import (
	"fmt"
	"os"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/paths"
	"github.com/Nomadcxx/jellybridge/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jellybridge configuration",
		Long: `Commands for managing jellybridge configuration.

The config file is stored at: ~/.config/jellybridge/config.toml
Every key can be overridden with JELLYBRIDGE_<SECTION>_<KEY>, for example
JELLYBRIDGE_SERVER_API_KEY.

Examples:
  jellybridge config init              # Create default config file
  jellybridge config show              # Display current configuration
  jellybridge config path              # Show config file path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().SaveTo(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			ui.SuccessMsg(os.Stdout, "Created config file: %s", path)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Set server.url and server.api_key (and server.local_url for LAN access)")
			fmt.Println("  2. Run 'jellybridge probe' to verify the connection")
			fmt.Println("  3. Run 'jellybridge serve' and point the extension at api.addr")

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, _ := configPath()
			fmt.Printf("Config file: %s\n\n", path)

			snap := cfg.Snapshot().Redacted()

			fmt.Println("=== Media Server ===")
			fmt.Printf("Kind:      %s\n", snap.Server.ServerKind())
			fmt.Printf("URL:       %s\n", orNone(snap.Server.URL))
			fmt.Printf("Local URL: %s\n", orNone(snap.Server.LocalURL))
			fmt.Printf("API Key:   %s\n", orNone(snap.Server.APIKey))
			fmt.Printf("Server ID: %s\n", orNone(snap.Server.ServerID))

			fmt.Println("\n=== Jellyseerr ===")
			fmt.Printf("Enabled:   %v\n", snap.Jellyseerr.Enabled)
			if snap.Jellyseerr.Enabled {
				fmt.Printf("URL:       %s\n", orNone(snap.Jellyseerr.URL))
				fmt.Printf("Local URL: %s\n", orNone(snap.Jellyseerr.LocalURL))
				fmt.Printf("API Key:   %s\n", orNone(snap.Jellyseerr.APIKey))
			}

			fmt.Println("\n=== Engine ===")
			fmt.Printf("Probe timeout:   %s\n", cfg.Engine.ProbeTimeout)
			fmt.Printf("Request timeout: %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("Lookup timeout:  %s\n", cfg.Engine.LookupTimeout)
			fmt.Printf("Batch timeout:   %s\n", cfg.Engine.BatchTimeout)
			fmt.Printf("Enrich results:  %d\n", cfg.Engine.MaxEnrichResults)

			fmt.Println("\n=== API ===")
			fmt.Printf("Address:    %s\n", cfg.API.Addr)
			fmt.Printf("Token:      %v\n", cfg.API.Token != "")
			fmt.Printf("Origins:    %v\n", cfg.API.AllowedOrigins)
			fmt.Printf("Rate limit: %.0f/s (burst %d)\n", cfg.API.RateLimitRPS, cfg.API.RateLimitBurst)

			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config, settings and log paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := configPath()
			if err != nil {
				return err
			}
			settingsPath, err := paths.SettingsPath()
			if err != nil {
				return err
			}
			logPath, err := paths.LogPath()
			if err != nil {
				return err
			}
			fmt.Printf("config:   %s\n", cfgPath)
			fmt.Printf("settings: %s\n", settingsPath)
			fmt.Printf("log:      %s\n", logPath)
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return ui.Dim("(not set)")
	}
	return s
}
