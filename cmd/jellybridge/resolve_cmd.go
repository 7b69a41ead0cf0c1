package main

import (
	"fmt"

	"github.com/Nomadcxx/jellybridge/internal/ui"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which base URL a service resolves to",
		Long: `Resolve the base URL for the media server or Jellyseerr.

The local URL is used when it answers within the probe timeout, otherwise
the public URL.

Examples:
  jellybridge resolve
  jellybridge resolve --target jellyseerr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := urlresolver.ParseTargetKind(target)
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			entry := s.engine.ResolveEntry(cmd.Context(), s.snap, kind)
			printEntry(kind, entry)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "server", "service to resolve: server, jellyseerr")

	return cmd
}

func newProbeCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Test a service's connection on its resolved URL",
		Long: `Probe the local URL again, then check the API key against whichever
URL won.

Examples:
  jellybridge probe
  jellybridge probe --target jellyseerr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := urlresolver.ParseTargetKind(target)
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			entry := s.engine.Probe(cmd.Context(), s.snap, kind)
			printEntry(kind, entry)

			info, err := s.engine.TestConnection(cmd.Context(), s.snap, kind)
			if err != nil {
				return err
			}
			name := info.ServerName
			if name == "" {
				name = string(info.Target)
			}
			ui.SuccessMsg(cmd.OutOrStdout(), "%s %s responded in %s", name, info.Version, ui.FormatDuration(info.Latency))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "server", "service to probe: server, jellyseerr")

	return cmd
}

func printEntry(kind urlresolver.TargetKind, entry urlresolver.Entry) {
	where := ui.Dim("public")
	if entry.IsLocal {
		where = ui.Success("local")
	}
	if entry.URL == "" {
		fmt.Printf("%s: %s\n", kind, ui.Warning("not configured"))
		return
	}
	fmt.Printf("%s: %s (%s)\n", kind, entry.URL, where)
}
