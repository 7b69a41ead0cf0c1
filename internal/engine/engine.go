// Package engine is the entry point the transport layers call. Each call
// takes the endpoint snapshot it should run against; the engine itself only
// keeps the URL resolution cache and the server ids learned with it.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/availability"
	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/enrich"
	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
)

type Options struct {
	Config  config.EngineConfig
	Gateway *gateway.Gateway
	Cache   urlresolver.Cache
	Logger  *logging.Logger
}

type Engine struct {
	cfg          config.EngineConfig
	gw           *gateway.Gateway
	urls         *urlresolver.Resolver
	serverIDs    *mediaserver.ServerIDs
	availability *availability.Resolver
	pipeline     *enrich.Pipeline
	logger       *logging.Logger
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	cfg := opts.Config
	if cfg == (config.EngineConfig{}) {
		cfg = config.DefaultEngineConfig()
	}

	gw := opts.Gateway
	if gw == nil {
		gw = gateway.New(gateway.Config{Timeout: cfg.RequestTimeout})
	}

	resolverOpts := []urlresolver.Option{urlresolver.WithLogger(logger)}
	if opts.Cache != nil {
		resolverOpts = append(resolverOpts, urlresolver.WithCache(opts.Cache))
	}
	urls := urlresolver.New(gw, resolverOpts...)
	serverIDs := mediaserver.NewServerIDs()

	return &Engine{
		cfg:       cfg,
		gw:        gw,
		urls:      urls,
		serverIDs: serverIDs,
		availability: availability.New(availability.Options{
			URLs:         urls,
			NewClient:    availability.NewClientFactory(gw, cfg.RequestTimeout),
			ProbeTimeout: cfg.ProbeTimeout,
			ServerIDs:    serverIDs,
			Logger:       logger,
		}),
		pipeline: enrich.New(enrich.Options{
			URLs:           urls,
			NewLookup:      enrich.NewLookupFactory(gw),
			ServerIDs:      serverIDs,
			ProbeTimeout:   cfg.ProbeTimeout,
			LookupTimeout:  cfg.LookupTimeout,
			BatchTimeout:   cfg.BatchTimeout,
			MaxResults:     cfg.MaxEnrichResults,
			MaxConcurrency: cfg.MaxConcurrency,
			Logger:         logger,
		}),
		logger: logger,
	}
}

// CheckAvailability reports whether m is on the configured server. It never
// fails; faults come back as media.Failed.
func (e *Engine) CheckAvailability(ctx context.Context, snap config.Snapshot, m media.DetectedMedia) media.Availability {
	return e.availability.Check(ctx, snap.Server, m)
}

// ResolveURL returns the base URL currently used for target.
func (e *Engine) ResolveURL(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) string {
	return e.ResolveEntry(ctx, snap, target).URL
}

func (e *Engine) ResolveEntry(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) urlresolver.Entry {
	return e.urls.ResolveEntry(ctx, e.target(snap, target))
}

// InvalidateURLCache drops every cached local/public verdict along with the
// server ids learned behind them.
func (e *Engine) InvalidateURLCache() {
	e.urls.Invalidate()
	e.serverIDs.Clear()
}

// Invalidate lets the engine serve as a settings.Invalidator.
func (e *Engine) Invalidate() {
	e.InvalidateURLCache()
}

// Probe forgets target's cached verdict and probes again.
func (e *Engine) Probe(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) urlresolver.Entry {
	entry := e.urls.Reprobe(ctx, e.target(snap, target))
	e.logger.Info("engine", "Manual probe",
		logging.F("target", target),
		logging.F("url", entry.URL),
		logging.F("local", entry.IsLocal))
	return entry
}

// IsUsingLocal reports the cached verdict for target without probing.
func (e *Engine) IsUsingLocal(snap config.Snapshot, target urlresolver.TargetKind) bool {
	return e.urls.IsUsingLocal(e.target(snap, target))
}

// EnrichSearchResults annotates recommendation hits with status labels and
// deep links to the user's server.
func (e *Engine) EnrichSearchResults(ctx context.Context, snap config.Snapshot, hits []seerr.MediaResult, query string) []enrich.EnrichedResult {
	return e.pipeline.Enrich(ctx, snap.Server, hits, query)
}

// Search queries the recommendation service and enriches the hits.
func (e *Engine) Search(ctx context.Context, snap config.Snapshot, query string) ([]enrich.EnrichedResult, error) {
	query = availability.NormalizeTitle(query)
	if query == "" {
		return nil, gateway.ErrEmptyQuery
	}

	client, err := e.seerrClient(ctx, snap)
	if err != nil {
		return nil, err
	}

	resp, err := client.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	hits := make([]seerr.MediaResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.MediaType == seerr.MediaTypeMovie || r.MediaType == seerr.MediaTypeTV {
			hits = append(hits, r)
		}
	}
	return e.EnrichSearchResults(ctx, snap, hits, query), nil
}

// Request submits an acquisition request to the recommendation service.
func (e *Engine) Request(ctx context.Context, snap config.Snapshot, payload seerr.RequestPayload) (*seerr.RequestResponse, error) {
	client, err := e.seerrClient(ctx, snap)
	if err != nil {
		return nil, err
	}

	resp, err := client.Request(ctx, payload)
	if err != nil {
		return nil, err
	}
	e.logger.Info("engine", "Request submitted",
		logging.F("type", payload.MediaType),
		logging.F("tmdb", payload.MediaID),
		logging.F("request_id", resp.ID))
	return resp, nil
}

// ConnectionInfo is the outcome of TestConnection.
type ConnectionInfo struct {
	Target     urlresolver.TargetKind `json:"target"`
	URL        string                 `json:"url"`
	IsLocal    bool                   `json:"isLocal"`
	ServerName string                 `json:"serverName,omitempty"`
	ServerID   string                 `json:"serverId,omitempty"`
	Version    string                 `json:"version"`
	Latency    time.Duration          `json:"latency"`
}

// TestConnection checks target's credentials against its resolved URL.
func (e *Engine) TestConnection(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) (*ConnectionInfo, error) {
	switch target {
	case urlresolver.TargetJellyseerr:
		if !snap.Jellyseerr.IsConfigured() {
			return nil, gateway.Missing("jellyseerr")
		}
	default:
		if !snap.Server.IsConfigured() {
			return nil, gateway.Missing("server")
		}
	}

	entry := e.ResolveEntry(ctx, snap, target)
	info := &ConnectionInfo{Target: target, URL: entry.URL, IsLocal: entry.IsLocal}
	start := time.Now()

	if target == urlresolver.TargetJellyseerr {
		client := seerr.NewClient(seerr.Config{URL: entry.URL, APIKey: snap.Jellyseerr.APIKey, Timeout: e.cfg.RequestTimeout, Gateway: e.gw})
		status, err := client.GetStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("testing jellyseerr connection: %w", err)
		}
		info.Version = status.Version
	} else {
		client := mediaserver.NewClient(mediaserver.Config{
			Kind:    snap.Server.ServerKind(),
			URL:     entry.URL,
			APIKey:  snap.Server.APIKey,
			Timeout: e.cfg.RequestTimeout,
			Gateway: e.gw,
		})
		sys, err := client.GetSystemInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("testing server connection: %w", err)
		}
		info.ServerName = sys.ServerName
		info.ServerID = sys.ID
		info.Version = sys.Version
	}

	info.Latency = time.Since(start)
	return info, nil
}

func (e *Engine) seerrClient(ctx context.Context, snap config.Snapshot) (*seerr.Client, error) {
	if !snap.Jellyseerr.IsConfigured() {
		return nil, gateway.Missing("jellyseerr")
	}
	baseURL := e.urls.Resolve(ctx, urlresolver.JellyseerrTarget(snap.Jellyseerr, e.cfg.ProbeTimeout))
	return seerr.NewClient(seerr.Config{
		URL:     baseURL,
		APIKey:  snap.Jellyseerr.APIKey,
		Timeout: e.cfg.RequestTimeout,
		Gateway: e.gw,
	}), nil
}

func (e *Engine) target(snap config.Snapshot, kind urlresolver.TargetKind) urlresolver.Target {
	return urlresolver.TargetFor(snap, kind, e.cfg.ProbeTimeout)
}
