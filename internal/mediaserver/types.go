package mediaserver

import "github.com/Nomadcxx/jellybridge/internal/media"

// SystemInfo from GET /System/Info.
type SystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// PublicSystemInfo from GET /System/Info/Public.
type PublicSystemInfo struct {
	ServerName   string `json:"ServerName"`
	Version      string `json:"Version"`
	ID           string `json:"Id"`
	LocalAddress string `json:"LocalAddress"`
}

// Item from GET /Items, /Shows/{id}/Seasons and /Shows/{id}/Episodes.
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	ProductionYear    int               `json:"ProductionYear"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	SeriesID          string            `json:"SeriesId,omitempty"`
	SeriesName        string            `json:"SeriesName,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
}

// ItemsResponse from the list endpoints.
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

func (i Item) toServerItem() media.ServerItem {
	return media.ServerItem{
		ID:          i.ID,
		Name:        i.Name,
		Kind:        media.ItemKind(i.Type),
		Year:        i.ProductionYear,
		ParentIndex: i.ParentIndexNumber,
		Index:       i.IndexNumber,
		ProviderIDs: i.ProviderIDs,
	}
}

func toServerItems(items []Item) []media.ServerItem {
	out := make([]media.ServerItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.toServerItem())
	}
	return out
}
