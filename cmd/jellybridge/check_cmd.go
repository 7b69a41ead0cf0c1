package main

import (
	"fmt"
	"os"

	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/ui"
	"github.com/spf13/cobra"
)

type checkFlags struct {
	title   string
	series  string
	year    int
	imdb    string
	tmdb    string
	season  int
	episode int
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a title is on the media server",
		Long: `Run an availability check the same way the extension does.

Examples:
  jellybridge check movie --title "Dune" --year 2021
  jellybridge check movie --title "Dune" --imdb tt1160419
  jellybridge check series --title "Dark"
  jellybridge check season --series "Dark" --season 2
  jellybridge check episode --series "Dark" --season 1 --episode 3`,
	}

	cmd.AddCommand(newCheckKindCmd(media.TypeMovie, "Check a movie"))
	cmd.AddCommand(newCheckKindCmd(media.TypeSeries, "Check a series"))
	cmd.AddCommand(newCheckKindCmd(media.TypeSeason, "Check one season of a series"))
	cmd.AddCommand(newCheckKindCmd(media.TypeEpisode, "Check one episode of a series"))

	return cmd
}

func newCheckKindCmd(kind media.DetectedType, short string) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detected, err := f.payload(kind).Parse()
			if err != nil {
				return err
			}

			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}

			verdict := s.engine.CheckAvailability(cmd.Context(), s.snap, detected)
			ui.PrintVerdict(os.Stdout, detected, verdict)

			return verdictErr(verdict)
		},
	}

	switch kind {
	case media.TypeMovie, media.TypeSeries:
		cmd.Flags().StringVarP(&f.title, "title", "t", "", "title to look up")
	default:
		cmd.Flags().StringVarP(&f.series, "series", "s", "", "series title")
		cmd.Flags().IntVar(&f.season, "season", 0, "season number (0 for specials)")
		_ = cmd.MarkFlagRequired("season")
	}
	if kind == media.TypeEpisode {
		cmd.Flags().IntVar(&f.episode, "episode", 0, "episode number")
	}
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "release year")
	cmd.Flags().StringVar(&f.imdb, "imdb", "", "IMDb id (tt...)")
	cmd.Flags().StringVar(&f.tmdb, "tmdb", "", "TMDb id")

	return cmd
}

func (f checkFlags) payload(kind media.DetectedType) media.DetectedPayload {
	return media.DetectedPayload{
		Type:          kind,
		Title:         f.title,
		SeriesTitle:   f.series,
		SeasonNumber:  &f.season,
		EpisodeNumber: f.episode,
		Year:          f.year,
		IMDbID:        f.imdb,
		TMDbID:        f.tmdb,
	}
}

// verdictErr gives the command a non-zero exit only when the lookup itself
// failed. A title missing from the server is a normal answer.
func verdictErr(a media.Availability) error {
	return media.SwitchAvailability(a,
		func(media.Unconfigured) error { return nil },
		func(media.Unavailable) error { return nil },
		func(media.Partial) error { return nil },
		func(media.Available) error { return nil },
		func(f media.Failed) error { return fmt.Errorf("availability check failed: %s", f.Message) },
	)
}
