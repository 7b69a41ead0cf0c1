package availability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeURLs struct {
	calls int
	url   string
}

func (f *fakeURLs) Resolve(ctx context.Context, t urlresolver.Target) string {
	f.calls++
	if f.url != "" {
		return f.url
	}
	return t.PublicURL
}

type fakeSearcher struct {
	byProvider  map[mediaserver.Provider][]media.ServerItem
	byTitle     []media.ServerItem
	seasons     []media.ServerItem
	providerErr error
	publicID    string

	providerCalls []mediaserver.Provider
	titleCalls    []string
	titleKinds    []media.ItemKind
	publicCalls   int
}

func (f *fakeSearcher) SearchByProviderID(ctx context.Context, provider mediaserver.Provider, id string) ([]media.ServerItem, error) {
	f.providerCalls = append(f.providerCalls, provider)
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f.byProvider[provider], nil
}

func (f *fakeSearcher) SearchItems(ctx context.Context, term string, kinds ...media.ItemKind) ([]media.ServerItem, error) {
	f.titleCalls = append(f.titleCalls, term)
	f.titleKinds = append(f.titleKinds, kinds...)
	return f.byTitle, nil
}

func (f *fakeSearcher) Seasons(ctx context.Context, seriesID string) ([]media.ServerItem, error) {
	return f.seasons, nil
}

func (f *fakeSearcher) Episodes(ctx context.Context, seriesID string, season int) ([]media.ServerItem, error) {
	return nil, nil
}

func (f *fakeSearcher) GetPublicInfo(ctx context.Context) (*mediaserver.PublicSystemInfo, error) {
	f.publicCalls++
	if f.publicID == "" {
		return nil, errors.New("no info")
	}
	return &mediaserver.PublicSystemInfo{ID: f.publicID}, nil
}

func newResolver(urls *fakeURLs, searcher *fakeSearcher) (*Resolver, *int) {
	built := 0
	r := New(Options{
		URLs: urls,
		NewClient: func(cfg config.ServerConfig, baseURL string) Searcher {
			built++
			return searcher
		},
	})
	return r, &built
}

var serverCfg = config.ServerConfig{Kind: "jellyfin", URL: "https://jf.example.com", APIKey: "key", ServerID: "srv"}

func TestCheck_UnconfiguredMakesNoCalls(t *testing.T) {
	urls := &fakeURLs{}
	searcher := &fakeSearcher{}
	r, built := newResolver(urls, searcher)

	queries := []media.DetectedMedia{
		media.Movie{Title: "X", IMDbID: "tt1"},
		media.Series{Title: "X"},
		media.Season{SeriesTitle: "X", SeasonNumber: 1},
		media.Episode{SeriesTitle: "X", SeasonNumber: 1, EpisodeNumber: 1},
	}
	for _, cfg := range []config.ServerConfig{
		{URL: "", APIKey: "key"},
		{URL: "https://jf.example.com", APIKey: ""},
	} {
		for _, q := range queries {
			assert.Equal(t, media.Unconfigured{}, r.Check(context.Background(), cfg, q))
		}
	}

	assert.Zero(t, urls.calls)
	assert.Zero(t, *built)
}

func TestCheck_UnconfiguredIssuesNoHTTP(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	gw := gateway.New(gateway.Config{})
	r := New(Options{
		URLs:      urlresolver.New(gw),
		NewClient: NewClientFactory(gw, 0),
	})

	cfg := config.ServerConfig{URL: ts.URL, LocalURL: ts.URL}
	assert.Equal(t, media.StatusUnconfigured, r.Check(context.Background(), cfg, media.Movie{Title: "X"}).Status())
	assert.Zero(t, hits.Load())
}

func TestCheck_IMDbHitShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{byProvider: map[mediaserver.Provider][]media.ServerItem{
		mediaserver.ProviderIMDb: {{ID: "m1", Kind: media.KindMovie, Year: 1999}},
	}}
	r, _ := newResolver(&fakeURLs{}, searcher)

	got := r.Check(context.Background(), serverCfg, media.Movie{Title: "The Matrix", Year: 1999, IMDbID: "tt0133093", TMDbID: "603"})

	avail, ok := got.(media.Available)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, "m1", avail.Item.ID)
	assert.Equal(t, "https://jf.example.com/web/index.html#!/details?id=m1&serverId=srv", avail.DeepLink)
	assert.Equal(t, []mediaserver.Provider{mediaserver.ProviderIMDb}, searcher.providerCalls)
	assert.Empty(t, searcher.titleCalls)
}

func TestCheck_FallsThroughToTMDbThenTitle(t *testing.T) {
	searcher := &fakeSearcher{byTitle: []media.ServerItem{{ID: "s1", Kind: media.KindSeries, Year: 2008}}}
	r, _ := newResolver(&fakeURLs{}, searcher)

	got := r.Check(context.Background(), serverCfg, media.Series{Title: "  Breaking   Bad ", Year: 2008, IMDbID: "tt0903747", TMDbID: "1396"})

	assert.Equal(t, media.StatusAvailable, got.Status())
	assert.Equal(t, []mediaserver.Provider{mediaserver.ProviderIMDb, mediaserver.ProviderTMDb}, searcher.providerCalls)
	assert.Equal(t, []string{"Breaking Bad"}, searcher.titleCalls)
	assert.Equal(t, []media.ItemKind{media.KindSeries}, searcher.titleKinds)
}

func TestCheck_SeasonSearchesBySeriesTitle(t *testing.T) {
	seasonOne := 1
	searcher := &fakeSearcher{
		byTitle: []media.ServerItem{{ID: "series", Kind: media.KindSeries}},
		seasons: []media.ServerItem{{ID: "season-1", Kind: media.KindSeason, Index: &seasonOne}},
	}
	r, _ := newResolver(&fakeURLs{}, searcher)

	got := r.Check(context.Background(), serverCfg, media.Season{SeriesTitle: "Dark", SeasonNumber: 5})

	assert.Equal(t, []string{"Dark"}, searcher.titleCalls)
	assert.Equal(t, []media.ItemKind{media.KindSeries}, searcher.titleKinds)
	partial, ok := got.(media.Partial)
	require.True(t, ok)
	assert.Contains(t, partial.Details, "Season 5 not found")
}

func TestCheck_NetworkFaultIsErrorWithoutFallThrough(t *testing.T) {
	searcher := &fakeSearcher{
		providerErr: &gateway.NetworkError{Method: "GET", URL: "https://jf.example.com/Items", Err: errors.New("connection refused")},
		byTitle:     []media.ServerItem{{ID: "m1", Kind: media.KindMovie}},
	}
	r, _ := newResolver(&fakeURLs{}, searcher)

	got := r.Check(context.Background(), serverCfg, media.Movie{Title: "X", IMDbID: "tt1", TMDbID: "2"})

	failed, ok := got.(media.Failed)
	require.True(t, ok, "got %T", got)
	assert.Contains(t, failed.Message, "Could not reach server")
	assert.Contains(t, failed.Message, "connection refused")
	assert.Len(t, searcher.providerCalls, 1)
	assert.Empty(t, searcher.titleCalls)
}

func TestCheck_NothingFoundIsUnavailable(t *testing.T) {
	searcher := &fakeSearcher{}
	r, _ := newResolver(&fakeURLs{}, searcher)

	got := r.Check(context.Background(), serverCfg, media.Movie{Title: "Nope"})
	assert.Equal(t, media.Unavailable{}, got)
}

func TestCheck_UsesResolvedBaseURLAndLearnsServerID(t *testing.T) {
	urls := &fakeURLs{url: "http://192.168.1.10:8096"}
	searcher := &fakeSearcher{
		byTitle:  []media.ServerItem{{ID: "m1", Kind: media.KindMovie}},
		publicID: "learned",
	}
	r, _ := newResolver(urls, searcher)

	cfg := serverCfg
	cfg.ServerID = ""
	cfg.LocalURL = "http://192.168.1.10:8096"

	for i := 0; i < 2; i++ {
		got := r.Check(context.Background(), cfg, media.Movie{Title: "X"})
		avail := got.(media.Available)
		assert.Equal(t, "http://192.168.1.10:8096", avail.ServerURL)
		assert.Equal(t, "http://192.168.1.10:8096/web/index.html#!/details?id=m1&serverId=learned", avail.DeepLink)
	}
	assert.Equal(t, 1, searcher.publicCalls)
}

func TestCheck_AgainstFakeJellyfin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Items":
			assert.Equal(t, "tt0133093", r.URL.Query().Get("AnyImdbId"))
			w.Write([]byte(`{"Items":[{"Id":"abc","Name":"The Matrix","Type":"Movie","ProductionYear":1999,"ProviderIds":{"Imdb":"tt0133093"}}]}`))
		case mediaserver.ProbePath:
			w.Write([]byte(`{"Id":"server-xyz"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	gw := gateway.New(gateway.Config{})
	r := New(Options{URLs: urlresolver.New(gw), NewClient: NewClientFactory(gw, 0)})

	cfg := config.ServerConfig{Kind: "jellyfin", URL: ts.URL, APIKey: "key"}
	got := r.Check(context.Background(), cfg, media.Movie{Title: "The Matrix", Year: 1999, IMDbID: "tt0133093"})

	avail, ok := got.(media.Available)
	require.True(t, ok, "got %#v", got)
	id, serverID, err := media.ParseDeepLink(avail.DeepLink)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "server-xyz", serverID)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "Am\u00e9lie", NormalizeTitle(" Ame\u0301lie  "))
	assert.Equal(t, "", NormalizeTitle("   "))
}
