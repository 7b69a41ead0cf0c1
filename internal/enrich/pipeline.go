// Package enrich turns recommendation-service search hits into rows that
// carry a readable status and, for titles already on the user's server, a
// deep link to them.
package enrich

import (
	"context"
	"strconv"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/matcher"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/metrics"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultMaxResults    = 5
	DefaultLookupTimeout = 5 * time.Second
	DefaultBatchTimeout  = 20 * time.Second

	posterBaseURL = "https://image.tmdb.org/t/p/w300"
)

// EnrichedResult is one row of an enrichment batch.
type EnrichedResult struct {
	SourceHit      seerr.MediaResult `json:"sourceHit"`
	MediaType      seerr.MediaType   `json:"mediaType"`
	TMDbID         int               `json:"tmdbId"`
	Title          string            `json:"title"`
	Year           int               `json:"year,omitempty"`
	PosterURL      string            `json:"posterUrl,omitempty"`
	Status         Status            `json:"status"`
	StatusLabel    string            `json:"statusLabel"`
	ServerURL      string            `json:"serverUrl,omitempty"`
	ServerDeepLink string            `json:"serverDeepLink,omitempty"`
}

// Lookup finds server items by external id. *mediaserver.Client satisfies it.
type Lookup interface {
	mediaserver.InfoSource
	SearchByProviderID(ctx context.Context, provider mediaserver.Provider, id string) ([]media.ServerItem, error)
}

type LookupFactory func(cfg config.ServerConfig, baseURL string) Lookup

// URLResolver picks the base URL for a target.
type URLResolver interface {
	Resolve(ctx context.Context, t urlresolver.Target) string
}

// NewLookupFactory returns a factory producing real clients that share gw.
func NewLookupFactory(gw *gateway.Gateway) LookupFactory {
	return func(cfg config.ServerConfig, baseURL string) Lookup {
		return mediaserver.NewClient(mediaserver.Config{
			Kind:    cfg.ServerKind(),
			URL:     baseURL,
			APIKey:  cfg.APIKey,
			Gateway: gw,
		})
	}
}

type Options struct {
	URLs           URLResolver
	NewLookup      LookupFactory
	ServerIDs      *mediaserver.ServerIDs
	ProbeTimeout   time.Duration
	LookupTimeout  time.Duration
	BatchTimeout   time.Duration
	MaxResults     int
	MaxConcurrency int
	Logger         *logging.Logger
}

type Pipeline struct {
	urls           URLResolver
	newLookup      LookupFactory
	serverIDs      *mediaserver.ServerIDs
	probeTimeout   time.Duration
	lookupTimeout  time.Duration
	batchTimeout   time.Duration
	maxResults     int
	maxConcurrency int
	logger         *logging.Logger
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		urls:           opts.URLs,
		newLookup:      opts.NewLookup,
		serverIDs:      opts.ServerIDs,
		probeTimeout:   opts.ProbeTimeout,
		lookupTimeout:  opts.LookupTimeout,
		batchTimeout:   opts.BatchTimeout,
		maxResults:     opts.MaxResults,
		maxConcurrency: opts.MaxConcurrency,
		logger:         opts.Logger,
	}
	if p.lookupTimeout <= 0 {
		p.lookupTimeout = DefaultLookupTimeout
	}
	if p.batchTimeout <= 0 {
		p.batchTimeout = DefaultBatchTimeout
	}
	if p.maxResults <= 0 {
		p.maxResults = DefaultMaxResults
	}
	if p.maxConcurrency <= 0 {
		p.maxConcurrency = p.maxResults
	}
	if p.serverIDs == nil {
		p.serverIDs = mediaserver.NewServerIDs()
	}
	if p.logger == nil {
		p.logger = logging.Nop()
	}
	return p
}

// Enrich returns one row per hit, truncated to the first MaxResults and in
// input order. Deep-link lookups for linkable hits run concurrently, each
// under its own timeout; a failed lookup only leaves its row without a link.
func (p *Pipeline) Enrich(ctx context.Context, cfg config.ServerConfig, hits []seerr.MediaResult, query string) []EnrichedResult {
	start := time.Now()
	defer metrics.ObserveSince("enrich", start)

	if len(hits) > p.maxResults {
		hits = hits[:p.maxResults]
	}

	results := make([]EnrichedResult, len(hits))
	linkable := 0
	for i, hit := range hits {
		results[i] = baseResult(hit)
		if results[i].Status.Linkable() {
			linkable++
		}
	}

	if linkable == 0 || !cfg.IsConfigured() {
		return results
	}

	target := urlresolver.ServerTarget(cfg, p.probeTimeout)
	baseURL := p.urls.Resolve(ctx, target)
	if baseURL == "" {
		return results
	}
	lookup := p.newLookup(cfg, baseURL)

	batchCtx, cancel := context.WithTimeout(ctx, p.batchTimeout)
	defer cancel()

	link := media.Link{
		Kind:     cfg.ServerKind(),
		BaseURL:  baseURL,
		ServerID: p.serverID(batchCtx, lookup, cfg, target.Fingerprint()),
	}

	workers := pool.New().WithMaxGoroutines(p.maxConcurrency)
	for i := range results {
		if !results[i].Status.Linkable() {
			continue
		}
		row := &results[i]
		workers.Go(func() {
			p.link(batchCtx, lookup, link, row)
		})
	}
	workers.Wait()

	p.logger.Debug("enrich", "Enriched search results",
		logging.F("query", query),
		logging.F("results", len(results)),
		logging.F("lookups", linkable),
		logging.F("duration", time.Since(start).Round(time.Millisecond)))
	return results
}

// serverID mirrors the availability check so both build identical links.
func (p *Pipeline) serverID(ctx context.Context, lookup Lookup, cfg config.ServerConfig, key string) string {
	if cfg.ServerID != "" {
		return cfg.ServerID
	}
	lookupCtx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	defer cancel()

	id, err := p.serverIDs.Lookup(lookupCtx, key, lookup)
	if err != nil {
		p.logger.Debug("enrich", "Could not learn server id",
			logging.F("reason", gateway.UserMessage(err)))
		return ""
	}
	return id
}

// link fills in row's server URL and deep link. Any failure is logged and
// swallowed.
func (p *Pipeline) link(ctx context.Context, lookup Lookup, link media.Link, row *EnrichedResult) {
	if row.TMDbID <= 0 {
		metrics.EnrichLookupsTotal.WithLabelValues("skipped").Inc()
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	defer cancel()

	items, err := lookup.SearchByProviderID(lookupCtx, mediaserver.ProviderTMDb, strconv.Itoa(row.TMDbID))
	if err == nil && lookupCtx.Err() != nil {
		err = lookupCtx.Err()
	}
	if err != nil {
		metrics.EnrichLookupsTotal.WithLabelValues("failed").Inc()
		p.logger.Warn("enrich", "Deep link lookup failed",
			logging.F("title", row.Title),
			logging.F("tmdb", row.TMDbID),
			logging.F("reason", gateway.UserMessage(err)))
		return
	}

	item, ok := matcher.SelectItem(items, itemKind(row.MediaType), 0)
	if !ok {
		metrics.EnrichLookupsTotal.WithLabelValues("not_found").Inc()
		return
	}

	metrics.EnrichLookupsTotal.WithLabelValues("linked").Inc()
	row.ServerURL = link.BaseURL
	row.ServerDeepLink = link.For(item.ID)
}

func baseResult(hit seerr.MediaResult) EnrichedResult {
	status := StatusFromCode(hit.Status())
	r := EnrichedResult{
		SourceHit:   hit,
		MediaType:   hit.MediaType,
		TMDbID:      hit.TMDbID(),
		Title:       hit.DisplayTitle(),
		Year:        hit.Year(),
		Status:      status,
		StatusLabel: status.Label(),
	}
	if hit.PosterPath != "" {
		r.PosterURL = posterBaseURL + hit.PosterPath
	}
	return r
}

func itemKind(t seerr.MediaType) media.ItemKind {
	if t == seerr.MediaTypeTV {
		return media.KindSeries
	}
	return media.KindMovie
}
