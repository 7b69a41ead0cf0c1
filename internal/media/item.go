package media

import "strings"

// ItemKind is the server-side type of a library item.
type ItemKind string

const (
	KindMovie   ItemKind = "Movie"
	KindSeries  ItemKind = "Series"
	KindSeason  ItemKind = "Season"
	KindEpisode ItemKind = "Episode"
)

// ServerKind selects the media server dialect.
type ServerKind string

const (
	ServerJellyfin ServerKind = "jellyfin"
	ServerEmby     ServerKind = "emby"
)

// ParseServerKind accepts "emby" or "jellyfin" in any case. Empty defaults to Jellyfin.
func ParseServerKind(s string) (ServerKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jellyfin":
		return ServerJellyfin, true
	case "emby":
		return ServerEmby, true
	default:
		return "", false
	}
}

// ServerItem is a read-only item returned by the media server's search API.
type ServerItem struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        ItemKind          `json:"kind"`
	Year        int               `json:"year,omitempty"`
	ParentIndex *int              `json:"parentIndex,omitempty"`
	Index       *int              `json:"index,omitempty"`
	ProviderIDs map[string]string `json:"providerIds,omitempty"`
}

// ProviderID looks up a provider id ignoring key case; servers disagree on
// "Imdb" vs "IMDB".
func (i ServerItem) ProviderID(provider string) string {
	for k, v := range i.ProviderIDs {
		if strings.EqualFold(k, provider) {
			return v
		}
	}
	return ""
}
