// Package mediaserver talks to Emby and Jellyfin. The two servers share one
// REST surface and differ in their auth header and provider-id query dialect.
package mediaserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/google/uuid"
)

// ProbePath is unauthenticated and cheap, so it doubles as the reachability probe.
const ProbePath = "/System/Info/Public"

const clientVersion = "1.0.0"

// deviceID identifies this process to Jellyfin for the lifetime of the process.
var deviceID = "jellybridge-" + uuid.NewString()

type Config struct {
	Kind    media.ServerKind
	URL     string
	APIKey  string
	Timeout time.Duration
	Gateway *gateway.Gateway
}

type Client struct {
	kind     media.ServerKind
	baseURL  string
	apiKey   string
	timeout  time.Duration
	gw       *gateway.Gateway
	hostname string
}

func NewClient(cfg Config) *Client {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "jellybridge"
	}

	gw := cfg.Gateway
	if gw == nil {
		gw = gateway.New(gateway.Config{Timeout: cfg.Timeout})
	}

	kind := cfg.Kind
	if kind == "" {
		kind = media.ServerJellyfin
	}

	return &Client{
		kind:     kind,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		gw:       gw,
		hostname: hostname,
	}
}

// Kind returns the server dialect this client speaks.
func (c *Client) Kind() media.ServerKind { return c.kind }

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	if c.apiKey == "" {
		return h
	}
	if c.kind == media.ServerEmby {
		h.Set("X-Emby-Token", c.apiKey)
		return h
	}
	h.Set("Authorization", fmt.Sprintf(`MediaBrowser Token="%s", Client="jellybridge", Device="%s", DeviceId="%s", Version="%s"`,
		c.apiKey, c.hostname, deviceID, clientVersion))
	return h
}

func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	return c.getWithAuth(ctx, endpoint, result, true)
}

func (c *Client) getWithAuth(ctx context.Context, endpoint string, result interface{}, withAuth bool) error {
	fullURL, err := gateway.JoinURL(c.baseURL, endpoint)
	if err != nil {
		return err
	}

	var header http.Header
	if withAuth {
		header = c.authHeader()
	}

	return c.gw.Do(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     fullURL,
		Header:  header,
		Timeout: c.timeout,
	}, result)
}

func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, "/System/Info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetPublicInfo(ctx context.Context) (*PublicSystemInfo, error) {
	var info PublicSystemInfo
	if err := c.getWithAuth(ctx, ProbePath, &info, false); err != nil {
		return nil, err
	}
	return &info, nil
}
