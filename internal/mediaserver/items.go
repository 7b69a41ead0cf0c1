package mediaserver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/media"
)

// Provider is an external metadata provider as named in ProviderIds.
type Provider string

const (
	ProviderIMDb Provider = "Imdb"
	ProviderTMDb Provider = "Tmdb"
)

const itemFields = "ProviderIds,ProductionYear"

// SearchItems runs a free-text search scoped to kinds.
func (c *Client) SearchItems(ctx context.Context, searchTerm string, kinds ...media.ItemKind) ([]media.ServerItem, error) {
	searchTerm = strings.TrimSpace(searchTerm)
	if searchTerm == "" {
		return nil, gateway.ErrEmptyQuery
	}

	query := url.Values{}
	query.Set("SearchTerm", searchTerm)
	query.Set("Recursive", "true")
	query.Set("Fields", itemFields)
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		query.Set("IncludeItemTypes", strings.Join(names, ","))
	}

	var resp ItemsResponse
	if err := c.get(ctx, "/Items?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	return toServerItems(resp.Items), nil
}

// SearchByProviderID finds movies and series tagged with an external id.
//
// Emby:     AnyProviderIdEquals=Imdb.tt0133093
// Jellyfin: AnyImdbId=tt0133093
//
// Servers that do not understand the filter return unfiltered results, so
// items whose ProviderIds do not carry the id are dropped.
func (c *Client) SearchByProviderID(ctx context.Context, provider Provider, id string) ([]media.ServerItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, gateway.ErrEmptyQuery
	}

	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("Fields", itemFields)
	query.Set("IncludeItemTypes", "Movie,Series")
	if c.kind == media.ServerEmby {
		query.Set("AnyProviderIdEquals", string(provider)+"."+id)
	} else {
		query.Set("Any"+string(provider)+"Id", id)
	}

	var resp ItemsResponse
	if err := c.get(ctx, "/Items?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("searching by %s id %s: %w", provider, id, err)
	}

	items := make([]media.ServerItem, 0, len(resp.Items))
	for _, item := range toServerItems(resp.Items) {
		if strings.EqualFold(item.ProviderID(string(provider)), id) {
			items = append(items, item)
		}
	}
	return items, nil
}

// Seasons lists the seasons of a series.
func (c *Client) Seasons(ctx context.Context, seriesID string) ([]media.ServerItem, error) {
	query := url.Values{}
	query.Set("Fields", itemFields)

	var resp ItemsResponse
	endpoint := "/Shows/" + url.PathEscape(seriesID) + "/Seasons?" + query.Encode()
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("getting seasons of %s: %w", seriesID, err)
	}
	return toServerItems(resp.Items), nil
}

// Episodes lists the episodes of one season of a series.
func (c *Client) Episodes(ctx context.Context, seriesID string, season int) ([]media.ServerItem, error) {
	query := url.Values{}
	query.Set("Season", strconv.Itoa(season))
	query.Set("Fields", itemFields)

	var resp ItemsResponse
	endpoint := "/Shows/" + url.PathEscape(seriesID) + "/Episodes?" + query.Encode()
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("getting episodes of %s season %d: %w", seriesID, season, err)
	}
	return toServerItems(resp.Items), nil
}
