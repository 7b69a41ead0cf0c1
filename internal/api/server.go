// Package api is the HTTP layer the browser extension talks to.
package api

import (
	"context"
	"net/http"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/engine"
	"github.com/Nomadcxx/jellybridge/internal/enrich"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// TokenHeader carries the shared secret when api.token is set.
const TokenHeader = "X-Bridge-Token"

// Engine is the set of engine calls the routes use. *engine.Engine
// satisfies it.
type Engine interface {
	CheckAvailability(ctx context.Context, snap config.Snapshot, m media.DetectedMedia) media.Availability
	ResolveEntry(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) urlresolver.Entry
	InvalidateURLCache()
	Probe(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) urlresolver.Entry
	TestConnection(ctx context.Context, snap config.Snapshot, target urlresolver.TargetKind) (*engine.ConnectionInfo, error)
	Search(ctx context.Context, snap config.Snapshot, query string) ([]enrich.EnrichedResult, error)
	EnrichSearchResults(ctx context.Context, snap config.Snapshot, hits []seerr.MediaResult, query string) []enrich.EnrichedResult
	Request(ctx context.Context, snap config.Snapshot, payload seerr.RequestPayload) (*seerr.RequestResponse, error)
}

// Settings holds the live endpoint snapshot. *settings.Manager satisfies it.
type Settings interface {
	Current() config.Snapshot
	Save(ctx context.Context, snap config.Snapshot) error
}

type Options struct {
	Engine   Engine
	Settings Settings
	Config   config.APIConfig
	Logger   *logging.Logger
	Gatherer prometheus.Gatherer
	Version  string
}

// Server implements the API
type Server struct {
	engine   Engine
	settings Settings
	cfg      config.APIConfig
	logger   *logging.Logger
	gatherer prometheus.Gatherer
	limiter  *rate.Limiter
	version  string
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	var limiter *rate.Limiter
	if opts.Config.RateLimitRPS > 0 {
		burst := opts.Config.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Config.RateLimitRPS), burst)
	}

	return &Server{
		engine:   opts.Engine,
		settings: opts.Settings,
		cfg:      opts.Config,
		logger:   logger,
		gatherer: gatherer,
		limiter:  limiter,
		version:  opts.Version,
	}
}

// Handler returns the HTTP handler with CORS, API routes and /metrics.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", TokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Mount("/api/v1", s.apiRouter())

	return r
}

func (s *Server) apiRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(s.metricsMiddleware)
	r.Use(s.authMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Post("/availability", s.handleAvailability)
	r.Get("/resolve", s.handleResolve)
	r.Post("/resolve/invalidate", s.handleInvalidate)
	r.Post("/probe", s.handleProbe)
	r.Get("/test", s.handleTestConnection)

	r.Get("/search", s.handleSearch)
	r.Post("/enrich", s.handleEnrich)
	r.Post("/request", s.handleRequest)

	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)

	return r
}

// ListenAndServe serves until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api", "Listening", logging.F("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
