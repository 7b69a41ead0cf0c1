package media

import (
	"fmt"
	"net/url"
	"strings"
)

// Link builds web UI deep links for one resolved server.
type Link struct {
	Kind     ServerKind
	BaseURL  string
	ServerID string
}

// For returns the deep link that opens itemID in the server's web UI.
//
// Jellyfin: {base}/web/index.html#!/details?id={id}&serverId={sid}
// Emby:     {base}/web/index.html#!/item?id={id}&serverId={sid}
func (l Link) For(itemID string) string {
	route := "details"
	if l.Kind == ServerEmby {
		route = "item"
	}

	link := fmt.Sprintf("%s/web/index.html#!/%s?id=%s", strings.TrimRight(l.BaseURL, "/"), route, url.QueryEscape(itemID))
	if l.ServerID != "" {
		link += "&serverId=" + url.QueryEscape(l.ServerID)
	}
	return link
}

// ParseDeepLink extracts the item id and optional server id from a link
// produced by Link.For.
func ParseDeepLink(link string) (itemID, serverID string, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", "", fmt.Errorf("parsing deep link: %w", err)
	}

	frag := strings.TrimPrefix(u.EscapedFragment(), "!")
	_, rawQuery, ok := strings.Cut(frag, "?")
	if !ok {
		return "", "", fmt.Errorf("deep link %q has no item query", link)
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", "", fmt.Errorf("parsing deep link query: %w", err)
	}

	itemID = q.Get("id")
	if itemID == "" {
		return "", "", fmt.Errorf("deep link %q has no item id", link)
	}
	return itemID, q.Get("serverId"), nil
}
