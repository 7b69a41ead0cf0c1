// Package media holds the data model shared by the availability engine:
// the media a page reports, the items a media server returns, and the
// verdicts the engine produces.
package media

import (
	"fmt"
	"strings"
)

// DetectedMedia is a title reported by a page scraper. The variants are
// Movie, Series, Season and Episode; use SwitchDetected to consume one.
type DetectedMedia interface {
	// SearchTitle is the title used for free-text search. Season and
	// Episode always search by their series title.
	SearchTitle() string
	// SearchKind is the server item kind a title search is scoped to.
	SearchKind() ItemKind
	ExternalIDs() ExternalIDs
	ReleaseYear() int
	Type() DetectedType

	isDetected()
}

// DetectedType names a DetectedMedia variant on the wire.
type DetectedType string

const (
	TypeMovie   DetectedType = "movie"
	TypeSeries  DetectedType = "series"
	TypeSeason  DetectedType = "season"
	TypeEpisode DetectedType = "episode"
)

// ExternalIDs carries the provider ids a page exposed. Empty means unknown.
type ExternalIDs struct {
	IMDb string
	TMDb string
}

type Movie struct {
	Title  string
	Year   int
	IMDbID string
	TMDbID string
}

type Series struct {
	Title  string
	Year   int
	IMDbID string
	TMDbID string
}

type Season struct {
	SeriesTitle  string
	SeasonNumber int
	Year         int
	IMDbID       string
	TMDbID       string
}

type Episode struct {
	SeriesTitle   string
	SeasonNumber  int
	EpisodeNumber int
	EpisodeTitle  string
	Year          int
	IMDbID        string
	TMDbID        string
}

func (m Movie) SearchTitle() string      { return m.Title }
func (m Movie) SearchKind() ItemKind     { return KindMovie }
func (m Movie) ExternalIDs() ExternalIDs { return ExternalIDs{IMDb: m.IMDbID, TMDb: m.TMDbID} }
func (m Movie) ReleaseYear() int         { return m.Year }
func (m Movie) Type() DetectedType       { return TypeMovie }
func (Movie) isDetected()                {}

func (s Series) SearchTitle() string      { return s.Title }
func (s Series) SearchKind() ItemKind     { return KindSeries }
func (s Series) ExternalIDs() ExternalIDs { return ExternalIDs{IMDb: s.IMDbID, TMDb: s.TMDbID} }
func (s Series) ReleaseYear() int         { return s.Year }
func (s Series) Type() DetectedType       { return TypeSeries }
func (Series) isDetected()                {}

func (s Season) SearchTitle() string      { return s.SeriesTitle }
func (s Season) SearchKind() ItemKind     { return KindSeries }
func (s Season) ExternalIDs() ExternalIDs { return ExternalIDs{IMDb: s.IMDbID, TMDb: s.TMDbID} }
func (s Season) ReleaseYear() int         { return s.Year }
func (s Season) Type() DetectedType       { return TypeSeason }
func (Season) isDetected()                {}

func (e Episode) SearchTitle() string      { return e.SeriesTitle }
func (e Episode) SearchKind() ItemKind     { return KindSeries }
func (e Episode) ExternalIDs() ExternalIDs { return ExternalIDs{IMDb: e.IMDbID, TMDb: e.TMDbID} }
func (e Episode) ReleaseYear() int         { return e.Year }
func (e Episode) Type() DetectedType       { return TypeEpisode }
func (Episode) isDetected()                {}

// SwitchDetected dispatches m to the handler for its variant. Every handler
// must be supplied, so adding a variant breaks every call site at compile time.
func SwitchDetected[T any](
	m DetectedMedia,
	movie func(Movie) T,
	series func(Series) T,
	season func(Season) T,
	episode func(Episode) T,
) T {
	switch v := m.(type) {
	case Movie:
		return movie(v)
	case Series:
		return series(v)
	case Season:
		return season(v)
	case Episode:
		return episode(v)
	default:
		// unreachable: isDetected is unexported
		panic(fmt.Sprintf("media: unknown DetectedMedia variant %T", m))
	}
}

// Describe renders m for logs and CLI output.
func Describe(m DetectedMedia) string {
	withYear := func(title string, year int) string {
		if year > 0 {
			return fmt.Sprintf("%s (%d)", title, year)
		}
		return title
	}
	return SwitchDetected(m,
		func(v Movie) string { return withYear(v.Title, v.Year) },
		func(v Series) string { return withYear(v.Title, v.Year) },
		func(v Season) string {
			return fmt.Sprintf("%s Season %d", withYear(v.SeriesTitle, v.Year), v.SeasonNumber)
		},
		func(v Episode) string {
			return fmt.Sprintf("%s S%02dE%02d", withYear(v.SeriesTitle, v.Year), v.SeasonNumber, v.EpisodeNumber)
		},
	)
}

// DetectedPayload is the flat JSON shape a scraper sends. Parse turns it into
// the matching DetectedMedia variant. SeasonNumber is a pointer so an absent
// field is not mistaken for season 0 (specials).
type DetectedPayload struct {
	Type          DetectedType `json:"type"`
	Title         string       `json:"title,omitempty"`
	SeriesTitle   string       `json:"seriesTitle,omitempty"`
	SeasonNumber  *int         `json:"seasonNumber,omitempty"`
	EpisodeNumber int          `json:"episodeNumber,omitempty"`
	EpisodeTitle  string       `json:"episodeTitle,omitempty"`
	Year          int          `json:"year,omitempty"`
	IMDbID        string       `json:"imdbId,omitempty"`
	TMDbID        string       `json:"tmdbId,omitempty"`
}

// Parse validates p and returns the DetectedMedia it describes.
func (p DetectedPayload) Parse() (DetectedMedia, error) {
	imdb := strings.TrimSpace(p.IMDbID)
	tmdb := strings.TrimSpace(p.TMDbID)

	switch DetectedType(strings.ToLower(string(p.Type))) {
	case TypeMovie:
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("movie requires a title")
		}
		return Movie{Title: strings.TrimSpace(p.Title), Year: p.Year, IMDbID: imdb, TMDbID: tmdb}, nil
	case TypeSeries:
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("series requires a title")
		}
		return Series{Title: strings.TrimSpace(p.Title), Year: p.Year, IMDbID: imdb, TMDbID: tmdb}, nil
	case TypeSeason:
		if strings.TrimSpace(p.SeriesTitle) == "" {
			return nil, fmt.Errorf("season requires a seriesTitle")
		}
		if p.SeasonNumber == nil {
			return nil, fmt.Errorf("season requires a seasonNumber")
		}
		if *p.SeasonNumber < 0 {
			return nil, fmt.Errorf("invalid season number %d", *p.SeasonNumber)
		}
		return Season{
			SeriesTitle:  strings.TrimSpace(p.SeriesTitle),
			SeasonNumber: *p.SeasonNumber,
			Year:         p.Year,
			IMDbID:       imdb,
			TMDbID:       tmdb,
		}, nil
	case TypeEpisode:
		if strings.TrimSpace(p.SeriesTitle) == "" {
			return nil, fmt.Errorf("episode requires a seriesTitle")
		}
		if p.SeasonNumber == nil {
			return nil, fmt.Errorf("episode requires a seasonNumber")
		}
		if *p.SeasonNumber < 0 || p.EpisodeNumber <= 0 {
			return nil, fmt.Errorf("invalid episode S%dE%d", *p.SeasonNumber, p.EpisodeNumber)
		}
		return Episode{
			SeriesTitle:   strings.TrimSpace(p.SeriesTitle),
			SeasonNumber:  *p.SeasonNumber,
			EpisodeNumber: p.EpisodeNumber,
			EpisodeTitle:  strings.TrimSpace(p.EpisodeTitle),
			Year:          p.Year,
			IMDbID:        imdb,
			TMDbID:        tmdb,
		}, nil
	default:
		return nil, fmt.Errorf("unknown media type %q", p.Type)
	}
}

// PayloadOf is the inverse of DetectedPayload.Parse.
func PayloadOf(m DetectedMedia) DetectedPayload {
	return SwitchDetected(m,
		func(v Movie) DetectedPayload {
			return DetectedPayload{Type: TypeMovie, Title: v.Title, Year: v.Year, IMDbID: v.IMDbID, TMDbID: v.TMDbID}
		},
		func(v Series) DetectedPayload {
			return DetectedPayload{Type: TypeSeries, Title: v.Title, Year: v.Year, IMDbID: v.IMDbID, TMDbID: v.TMDbID}
		},
		func(v Season) DetectedPayload {
			return DetectedPayload{Type: TypeSeason, SeriesTitle: v.SeriesTitle, SeasonNumber: &v.SeasonNumber,
				Year: v.Year, IMDbID: v.IMDbID, TMDbID: v.TMDbID}
		},
		func(v Episode) DetectedPayload {
			return DetectedPayload{Type: TypeEpisode, SeriesTitle: v.SeriesTitle, SeasonNumber: &v.SeasonNumber,
				EpisodeNumber: v.EpisodeNumber, EpisodeTitle: v.EpisodeTitle, Year: v.Year, IMDbID: v.IMDbID, TMDbID: v.TMDbID}
		},
	)
}
