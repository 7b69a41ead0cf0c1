package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_DecodesJSONAndSendsHeaders(t *testing.T) {
	var gotHeader, gotContentType, gotBody string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "2.1.0"})
	}))
	defer ts.Close()

	g := New(Config{Timeout: time.Second})
	var out struct {
		Version string `json:"version"`
	}
	err := g.Post(context.Background(), ts.URL, http.Header{"X-Api-Key": {"k"}}, map[string]int{"mediaId": 603}, &out)
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", out.Version)
	assert.Equal(t, "k", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"mediaId":603}`, gotBody)
}

func TestDo_NonSuccessIsServerResponseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	err := New(Config{}).Get(context.Background(), ts.URL, nil, nil)

	var respErr *ServerResponseError
	require.True(t, errors.As(err, &respErr), "got %v", err)
	assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)
	assert.Contains(t, err.Error(), "API error (status 502): boom")
}

func TestDo_TimeoutIsTimeoutError(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	err := New(Config{}).Probe(context.Background(), ts.URL, 50*time.Millisecond)

	var tErr *TimeoutError
	require.True(t, errors.As(err, &tErr), "got %v", err)
	assert.Equal(t, 50*time.Millisecond, tErr.After)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDo_ConnectionRefusedIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	err := New(Config{Timeout: time.Second}).Get(context.Background(), addr, nil, nil)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.Equal(t, http.MethodGet, netErr.Method)
	assert.Contains(t, UserMessage(err), "Could not reach server")
}

func TestDo_ParentCancellationIsNotTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(Config{Timeout: time.Second}).Get(ctx, ts.URL, nil, nil)

	var tErr *TimeoutError
	assert.False(t, errors.As(err, &tErr))
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, endpoint, want string
	}{
		{"http://nas:8096", "/Items?SearchTerm=x", "http://nas:8096/Items?SearchTerm=x"},
		{"http://nas:8096/", "/System/Info/Public", "http://nas:8096/System/Info/Public"},
		{"https://example.com/jellyfin/", "/Shows/1/Seasons", "https://example.com/jellyfin/Shows/1/Seasons"},
	}
	for _, tt := range tests {
		got, err := JoinURL(tt.base, tt.endpoint)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := JoinURL("", "/Items")
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = JoinURL("nas:8096", "/Items")
	assert.True(t, errors.As(err, &cfgErr))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Server rejected the API key (HTTP 401)", UserMessage(&ServerResponseError{StatusCode: 401}))
	assert.Equal(t, "Server returned HTTP 500", UserMessage(&ServerResponseError{StatusCode: 500}))
	assert.Equal(t, "Server did not respond within 5s", UserMessage(&TimeoutError{After: 5 * time.Second}))
	assert.Equal(t, "Search query is empty", UserMessage(ErrEmptyQuery))
	assert.Contains(t, UserMessage(Missing("api_key")), "api_key is not set")
}
