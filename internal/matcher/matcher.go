// Package matcher decides which server item, if any, answers a detected
// media query.
package matcher

import (
	"context"
	"fmt"

	"github.com/Nomadcxx/jellybridge/internal/media"
)

// YearTolerance absorbs regional release-date differences between
// metadata providers.
const YearTolerance = 1

// ChildLookup lists the children of a series. *mediaserver.Client
// satisfies it.
type ChildLookup interface {
	Seasons(ctx context.Context, seriesID string) ([]media.ServerItem, error)
	Episodes(ctx context.Context, seriesID string, season int) ([]media.ServerItem, error)
}

// Match turns server search hits into a verdict for query. Season and
// episode queries call children for a second lookup; its error is returned
// as is. Available and Partial verdicts carry link's base URL and a deep
// link built from it.
func Match(ctx context.Context, items []media.ServerItem, query media.DetectedMedia, link media.Link, children ChildLookup) (media.Availability, error) {
	available := func(item media.ServerItem) media.Availability {
		return media.Available{Item: item, ServerURL: link.BaseURL, DeepLink: link.For(item.ID)}
	}

	res := media.SwitchDetected(query,
		func(m media.Movie) outcome {
			item, ok := SelectItem(items, media.KindMovie, m.Year)
			if !ok {
				return outcome{verdict: media.Unavailable{}}
			}
			return outcome{verdict: available(item)}
		},
		func(s media.Series) outcome {
			item, ok := SelectItem(items, media.KindSeries, s.Year)
			if !ok {
				return outcome{verdict: media.Unavailable{}}
			}
			return outcome{verdict: available(item)}
		},
		func(s media.Season) outcome {
			series, ok := selectSeries(items, s.Year)
			if !ok {
				return outcome{verdict: media.Unavailable{}}
			}
			seasons, err := children.Seasons(ctx, series.ID)
			if err != nil {
				return outcome{err: err}
			}
			if season, ok := findChild(seasons, s.SeasonNumber, nil); ok {
				return outcome{verdict: available(season)}
			}
			return outcome{verdict: media.Partial{
				Item:      series,
				ServerURL: link.BaseURL,
				DeepLink:  link.For(series.ID),
				Details:   fmt.Sprintf("Season %d not found, but series exists", s.SeasonNumber),
			}}
		},
		func(e media.Episode) outcome {
			series, ok := selectSeries(items, e.Year)
			if !ok {
				return outcome{verdict: media.Unavailable{}}
			}
			episodes, err := children.Episodes(ctx, series.ID, e.SeasonNumber)
			if err != nil {
				return outcome{err: err}
			}
			season := e.SeasonNumber
			if episode, ok := findChild(episodes, e.EpisodeNumber, &season); ok {
				return outcome{verdict: available(episode)}
			}
			return outcome{verdict: media.Partial{
				Item:      series,
				ServerURL: link.BaseURL,
				DeepLink:  link.For(series.ID),
				Details:   fmt.Sprintf("Season %d Episode %d not found, but series exists", e.SeasonNumber, e.EpisodeNumber),
			}}
		},
	)
	return res.verdict, res.err
}

type outcome struct {
	verdict media.Availability
	err     error
}

// SelectItem picks the movie or series answering a query of kind and year.
//
// Items of kind are preferred; with a year, the first one within
// YearTolerance wins and a kind match with the wrong year is no match. When
// no item has the wanted kind, the first item of any kind is taken, since
// some providers tag kinds inconsistently.
func SelectItem(items []media.ServerItem, kind media.ItemKind, year int) (media.ServerItem, bool) {
	candidates := ofKind(items, kind)
	if len(candidates) == 0 {
		if len(items) > 0 {
			return items[0], true
		}
		return media.ServerItem{}, false
	}

	if year <= 0 {
		return candidates[0], true
	}
	for _, item := range candidates {
		if YearMatches(item.Year, year) {
			return item, true
		}
	}
	return media.ServerItem{}, false
}

// selectSeries finds the parent series for a season or episode query. The
// year only breaks ties between several series.
func selectSeries(items []media.ServerItem, year int) (media.ServerItem, bool) {
	series := ofKind(items, media.KindSeries)
	if len(series) == 0 {
		return media.ServerItem{}, false
	}
	if year > 0 {
		for _, item := range series {
			if YearMatches(item.Year, year) {
				return item, true
			}
		}
	}
	return series[0], true
}

// YearMatches reports whether an item year is within tolerance of the
// wanted year. Items without a year never match.
func YearMatches(itemYear, want int) bool {
	if itemYear <= 0 {
		return false
	}
	diff := itemYear - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= YearTolerance
}

func ofKind(items []media.ServerItem, kind media.ItemKind) []media.ServerItem {
	var out []media.ServerItem
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// findChild looks for the child numbered index. When parent is set, a child
// that reports a different parent index is skipped.
func findChild(children []media.ServerItem, index int, parent *int) (media.ServerItem, bool) {
	for _, child := range children {
		if child.Index == nil || *child.Index != index {
			continue
		}
		if parent != nil && child.ParentIndex != nil && *child.ParentIndex != *parent {
			continue
		}
		return child, true
	}
	return media.ServerItem{}, false
}
