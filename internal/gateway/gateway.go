// Package gateway issues HTTP requests to the media server and the
// recommendation service. Failures come back as typed errors: NetworkError,
// ServerResponseError, TimeoutError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

type Config struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// Gateway is safe for concurrent use.
type Gateway struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

func New(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	// Deadlines come from the request context so the timeout race is explicit.
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "jellybridge"
	}

	return &Gateway{
		httpClient: httpClient,
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

// Request describes one call. Timeout overrides the gateway default.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    interface{}
	Timeout time.Duration
}

// Do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (g *Gateway) Do(ctx context.Context, req Request, out interface{}) error {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		jsonBytes, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}
		body = bytes.NewReader(jsonBytes)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", g.userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return g.classify(ctx, callCtx, method, req.URL, timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ServerResponseError{
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(bodyBytes)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if callCtx.Err() != nil {
			return g.classify(ctx, callCtx, method, req.URL, timeout, err)
		}
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// classify separates our own deadline firing from other transport failures.
func (g *Gateway) classify(parent, call context.Context, method, rawURL string, timeout time.Duration, err error) error {
	if parent.Err() == nil && errors.Is(call.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: rawURL, After: timeout}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &NetworkError{Method: method, URL: rawURL, Err: err}
}

func (g *Gateway) Get(ctx context.Context, rawURL string, header http.Header, out interface{}) error {
	return g.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Header: header}, out)
}

func (g *Gateway) Post(ctx context.Context, rawURL string, header http.Header, payload, out interface{}) error {
	return g.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Header: header, Body: payload}, out)
}

// Probe issues an unauthenticated GET and succeeds only on a 2xx answer
// within timeout.
func (g *Gateway) Probe(ctx context.Context, rawURL string, timeout time.Duration) error {
	return g.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Timeout: timeout}, nil)
}

// JoinURL appends endpoint (which may carry a query string) to base,
// keeping any path prefix on base such as a reverse-proxy subpath.
func JoinURL(base, endpoint string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", Missing("url")
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &ConfigurationError{Field: "url", Reason: fmt.Sprintf("%q is not an absolute URL", base)}
	}

	path, query, _ := strings.Cut(endpoint, "?")
	joined := u.JoinPath(path)
	joined.RawQuery = query
	return joined.String(), nil
}
