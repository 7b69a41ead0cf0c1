package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// publicPaths skip auth and rate limiting.
var publicPaths = []string{"/health"}

func isPublic(path string) bool {
	for _, suffix := range publicPaths {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// authMiddleware requires the shared token when one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(TokenHeader)
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "/other"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []logging.Field{
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", status),
			logging.F("duration", time.Since(start).Round(time.Millisecond)),
			logging.F("request_id", middleware.GetReqID(r.Context())),
		}

		switch {
		case status >= 500:
			s.logger.Warn("api", "Request failed", fields...)
		case isPublic(r.URL.Path) || r.URL.Path == "/metrics":
			s.logger.Debug("api", "Request", fields...)
		default:
			s.logger.Info("api", "Request", fields...)
		}
	})
}
