// Package seerr is a client for Jellyseerr/Overseerr-style request services.
package seerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/gateway"
)

// StatusPath doubles as the reachability probe.
const StatusPath = "/api/v1/status"

// ErrInvalidRequest marks a request payload rejected before it is sent.
var ErrInvalidRequest = errors.New("invalid request")

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Gateway *gateway.Gateway
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	gw      *gateway.Gateway
}

func NewClient(cfg Config) *Client {
	gw := cfg.Gateway
	if gw == nil {
		gw = gateway.New(gateway.Config{Timeout: cfg.Timeout})
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		gw:      gw,
	}
}

func (c *Client) request(ctx context.Context, method, endpoint string, payload, result interface{}) error {
	fullURL, err := gateway.JoinURL(c.baseURL, endpoint)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("X-Api-Key", c.apiKey)

	return c.gw.Do(ctx, gateway.Request{
		Method:  method,
		URL:     fullURL,
		Header:  header,
		Body:    payload,
		Timeout: c.timeout,
	}, result)
}

func (c *Client) get(ctx context.Context, endpoint string, result interface{}) error {
	return c.request(ctx, http.MethodGet, endpoint, nil, result)
}

func (c *Client) post(ctx context.Context, endpoint string, payload, result interface{}) error {
	return c.request(ctx, http.MethodPost, endpoint, payload, result)
}

// Search queries the catalog. page starts at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, gateway.ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	// The service rejects '+' for spaces; it wants %20.
	escaped := strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
	endpoint := fmt.Sprintf("/api/v1/search?query=%s&page=%s", escaped, strconv.Itoa(page))

	var resp SearchResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return &resp, nil
}

// Request submits an acquisition request.
func (c *Client) Request(ctx context.Context, payload RequestPayload) (*RequestResponse, error) {
	if payload.MediaType != MediaTypeMovie && payload.MediaType != MediaTypeTV {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrInvalidRequest, payload.MediaType)
	}
	if payload.MediaID <= 0 {
		return nil, fmt.Errorf("%w: media id %d", ErrInvalidRequest, payload.MediaID)
	}
	if payload.MediaType == MediaTypeMovie {
		payload.Seasons = nil
	}

	var resp RequestResponse
	if err := c.post(ctx, "/api/v1/request", payload, &resp); err != nil {
		return nil, fmt.Errorf("requesting %s %d: %w", payload.MediaType, payload.MediaID, err)
	}
	return &resp, nil
}

func (c *Client) GetStatus(ctx context.Context) (*StatusResponse, error) {
	var status StatusResponse
	if err := c.get(ctx, StatusPath, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
