package main

import (
	"os"
	"strings"

	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/ui"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search Jellyseerr and link results to the media server",
		Long: `Search the recommendation service and annotate the top results with
their status and a deep link on your media server.

Examples:
  jellybridge search "the matrix"
  jellybridge search severance`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			results, err := s.engine.Search(cmd.Context(), s.snap, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				ui.WarningMsg(os.Stdout, "No results")
				return nil
			}
			ui.PrintResults(os.Stdout, results)
			return nil
		},
	}
}

func newRequestCmd() *cobra.Command {
	var (
		mediaType string
		tmdbID    int
		seasons   []int
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a title through Jellyseerr",
		Long: `Submit a request to the recommendation service.

Examples:
  jellybridge request --type movie --tmdb 603
  jellybridge request --type tv --tmdb 1399 --season 1 --season 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			resp, err := s.engine.Request(cmd.Context(), s.snap, seerr.RequestPayload{
				MediaType: seerr.MediaType(mediaType),
				MediaID:   tmdbID,
				Seasons:   seasons,
			})
			if err != nil {
				return err
			}
			ui.SuccessMsg(os.Stdout, "Request %d created (status %d)", resp.ID, resp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&mediaType, "type", string(seerr.MediaTypeMovie), "media type: movie, tv")
	cmd.Flags().IntVar(&tmdbID, "tmdb", 0, "TMDb id")
	cmd.Flags().IntSliceVar(&seasons, "season", nil, "season to request (tv only, repeatable)")
	_ = cmd.MarkFlagRequired("tmdb")

	return cmd
}
