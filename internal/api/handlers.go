package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type EnrichRequest struct {
	Query   string              `json:"query"`
	Results []seerr.MediaResult `json:"results"`
}

type ResolveResponse struct {
	Target  urlresolver.TargetKind `json:"target"`
	URL     string                 `json:"url"`
	IsLocal bool                   `json:"isLocal"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var payload media.DetectedPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	detected, err := payload.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_media", err.Error())
		return
	}

	verdict := s.engine.CheckAvailability(r.Context(), s.settings.Current(), detected)
	writeJSON(w, http.StatusOK, media.ViewOf(verdict))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(w, r)
	if !ok {
		return
	}
	entry := s.engine.ResolveEntry(r.Context(), s.settings.Current(), target)
	writeJSON(w, http.StatusOK, ResolveResponse{Target: target, URL: entry.URL, IsLocal: entry.IsLocal})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.engine.InvalidateURLCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(w, r)
	if !ok {
		return
	}
	entry := s.engine.Probe(r.Context(), s.settings.Current(), target)
	writeJSON(w, http.StatusOK, ResolveResponse{Target: target, URL: entry.URL, IsLocal: entry.IsLocal})
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(w, r)
	if !ok {
		return
	}
	info, err := s.engine.TestConnection(r.Context(), s.settings.Current(), target)
	if err != nil {
		s.writeEngineError(w, "test", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.Search(r.Context(), s.settings.Current(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeEngineError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req EnrichRequest
	if !decodeBody(w, r, &req) {
		return
	}
	results := s.engine.EnrichSearchResults(r.Context(), s.settings.Current(), req.Results, req.Query)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var payload seerr.RequestPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	resp, err := s.engine.Request(r.Context(), s.settings.Current(), payload)
	if err != nil {
		s.writeEngineError(w, "request", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Current().Redacted())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var snap config.Snapshot
	if !decodeBody(w, r, &snap) {
		return
	}

	// Redacted keys echoed back from GET keep the stored value.
	current := s.settings.Current()
	if isRedacted(snap.Server.APIKey) {
		snap.Server.APIKey = current.Server.APIKey
	}
	if isRedacted(snap.Jellyseerr.APIKey) {
		snap.Jellyseerr.APIKey = current.Jellyseerr.APIKey
	}

	if err := s.settings.Save(r.Context(), snap); err != nil {
		s.writeEngineError(w, "settings", err)
		return
	}
	s.logger.Info("api", "Settings updated",
		logging.F("server_kind", snap.Server.ServerKind()),
		logging.F("jellyseerr", snap.Jellyseerr.IsConfigured()))
	writeJSON(w, http.StatusOK, s.settings.Current().Redacted())
}

func isRedacted(key string) bool {
	return strings.HasPrefix(key, "****")
}

func parseTarget(w http.ResponseWriter, r *http.Request) (urlresolver.TargetKind, bool) {
	target, err := urlresolver.ParseTargetKind(r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_target", err.Error())
		return "", false
	}
	return target, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid request body")
		return false
	}
	return true
}

// writeEngineError maps engine and gateway errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	var (
		cfgErr     *gateway.ConfigurationError
		timeoutErr *gateway.TimeoutError
		netErr     *gateway.NetworkError
		respErr    *gateway.ServerResponseError
	)

	switch {
	case errors.Is(err, gateway.ErrEmptyQuery), errors.Is(err, seerr.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusBadRequest, "configuration_error", gateway.UserMessage(err))
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusGatewayTimeout, "timeout", gateway.UserMessage(err))
	case errors.As(err, &netErr), errors.As(err, &respErr):
		writeError(w, http.StatusBadGateway, "upstream_error", gateway.UserMessage(err))
	default:
		s.logger.Error("api", "Unhandled error", err, logging.F("op", op))
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
