// Package availability runs the lookup cascade that answers "is this title
// on my server": IMDb id, then TMDb id, then a kind-scoped title search.
package availability

import (
	"context"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/matcher"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/metrics"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"golang.org/x/text/unicode/norm"
)

// Searcher is the slice of the media server API the cascade needs.
// *mediaserver.Client satisfies it.
type Searcher interface {
	matcher.ChildLookup
	SearchByProviderID(ctx context.Context, provider mediaserver.Provider, id string) ([]media.ServerItem, error)
	SearchItems(ctx context.Context, searchTerm string, kinds ...media.ItemKind) ([]media.ServerItem, error)
	GetPublicInfo(ctx context.Context) (*mediaserver.PublicSystemInfo, error)
}

// ClientFactory builds a Searcher for cfg talking to baseURL.
type ClientFactory func(cfg config.ServerConfig, baseURL string) Searcher

// URLResolver picks the base URL for a target.
type URLResolver interface {
	Resolve(ctx context.Context, t urlresolver.Target) string
}

// NewClientFactory returns a factory producing real clients that share gw.
func NewClientFactory(gw *gateway.Gateway, timeout time.Duration) ClientFactory {
	return func(cfg config.ServerConfig, baseURL string) Searcher {
		return mediaserver.NewClient(mediaserver.Config{
			Kind:    cfg.ServerKind(),
			URL:     baseURL,
			APIKey:  cfg.APIKey,
			Timeout: timeout,
			Gateway: gw,
		})
	}
}

type Options struct {
	URLs         URLResolver
	NewClient    ClientFactory
	ProbeTimeout time.Duration
	ServerIDs    *mediaserver.ServerIDs
	Logger       *logging.Logger
}

type Resolver struct {
	urls         URLResolver
	newClient    ClientFactory
	probeTimeout time.Duration
	serverIDs    *mediaserver.ServerIDs
	logger       *logging.Logger
}

func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	ids := opts.ServerIDs
	if ids == nil {
		ids = mediaserver.NewServerIDs()
	}
	return &Resolver{
		urls:         opts.URLs,
		newClient:    opts.NewClient,
		probeTimeout: opts.ProbeTimeout,
		serverIDs:    ids,
		logger:       logger,
	}
}

// Check answers query against the server in cfg. It never returns an error:
// faults become media.Failed and stop the cascade.
func (r *Resolver) Check(ctx context.Context, cfg config.ServerConfig, query media.DetectedMedia) media.Availability {
	start := time.Now()
	defer metrics.ObserveSince("availability", start)

	verdict := r.check(ctx, cfg, query)
	metrics.AvailabilityChecksTotal.WithLabelValues(string(verdict.Status())).Inc()
	r.logger.Info("availability", "Availability checked",
		logging.F("media", media.Describe(query)),
		logging.F("verdict", verdict.Status()),
		logging.F("duration", time.Since(start).Round(time.Millisecond)))
	return verdict
}

func (r *Resolver) check(ctx context.Context, cfg config.ServerConfig, query media.DetectedMedia) media.Availability {
	if !cfg.IsConfigured() {
		return media.Unconfigured{}
	}

	baseURL := r.urls.Resolve(ctx, urlresolver.ServerTarget(cfg, r.probeTimeout))
	client := r.newClient(cfg, baseURL)

	items, err := r.cascade(ctx, client, query)
	if err != nil {
		return r.fail(query, err)
	}
	if len(items) == 0 {
		return media.Unavailable{}
	}

	link := media.Link{
		Kind:     cfg.ServerKind(),
		BaseURL:  baseURL,
		ServerID: r.serverID(ctx, client, cfg, baseURL),
	}
	verdict, err := matcher.Match(ctx, items, query, link, client)
	if err != nil {
		return r.fail(query, err)
	}
	return verdict
}

// cascade returns the first non-empty result set. An error ends it.
func (r *Resolver) cascade(ctx context.Context, client Searcher, query media.DetectedMedia) ([]media.ServerItem, error) {
	ids := query.ExternalIDs()

	if ids.IMDb != "" {
		items, err := client.SearchByProviderID(ctx, mediaserver.ProviderIMDb, ids.IMDb)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("availability", "IMDb lookup",
			logging.F("imdb", ids.IMDb),
			logging.F("results", len(items)))
		if len(items) > 0 {
			return items, nil
		}
	}

	if ids.TMDb != "" {
		items, err := client.SearchByProviderID(ctx, mediaserver.ProviderTMDb, ids.TMDb)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("availability", "TMDb lookup",
			logging.F("tmdb", ids.TMDb),
			logging.F("results", len(items)))
		if len(items) > 0 {
			return items, nil
		}
	}

	term := NormalizeTitle(query.SearchTitle())
	if term == "" {
		return nil, nil
	}
	items, err := client.SearchItems(ctx, term, query.SearchKind())
	if err != nil {
		return nil, err
	}
	r.logger.Debug("availability", "Title lookup",
		logging.F("term", term),
		logging.F("kind", query.SearchKind()),
		logging.F("results", len(items)))
	return items, nil
}

func (r *Resolver) fail(query media.DetectedMedia, err error) media.Availability {
	r.logger.Error("availability", "Lookup failed", err, logging.F("media", media.Describe(query)))
	return media.Failed{Message: gateway.UserMessage(err)}
}

// serverID returns the configured server id or the one learned for this
// endpoint configuration. A failure only means links go without it.
func (r *Resolver) serverID(ctx context.Context, client Searcher, cfg config.ServerConfig, baseURL string) string {
	if cfg.ServerID != "" {
		return cfg.ServerID
	}
	key := urlresolver.ServerTarget(cfg, r.probeTimeout).Fingerprint()
	id, err := r.serverIDs.Lookup(ctx, key, client)
	if err != nil {
		r.logger.Debug("availability", "Could not learn server id",
			logging.F("url", baseURL),
			logging.F("reason", gateway.UserMessage(err)))
		return ""
	}
	return id
}

// NormalizeTitle trims, collapses whitespace and composes the title to NFC
// so scraped titles compare like server titles.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.Join(strings.Fields(title), " "))
}
