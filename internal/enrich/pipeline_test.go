package enrich

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/config"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/mediaserver"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/Nomadcxx/jellybridge/internal/urlresolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeURLs struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeURLs) Resolve(ctx context.Context, t urlresolver.Target) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return t.PublicURL
}

// fakeLookup answers with one movie per TMDb id. Ids in hang block until the
// lookup context ends; ids in fail return an error. Without a serverID
// the public info lookup fails.
type fakeLookup struct {
	mu          sync.Mutex
	seen        []string
	hang        map[string]bool
	fail        map[string]bool
	empty       map[string]bool
	serverID    string
	publicCalls int
}

func (f *fakeLookup) GetPublicInfo(ctx context.Context) (*mediaserver.PublicSystemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publicCalls++
	if f.serverID == "" {
		return nil, errors.New("no public info")
	}
	return &mediaserver.PublicSystemInfo{ID: f.serverID}, nil
}

func (f *fakeLookup) SearchByProviderID(ctx context.Context, provider mediaserver.Provider, id string) ([]media.ServerItem, error) {
	f.mu.Lock()
	f.seen = append(f.seen, id)
	f.mu.Unlock()

	switch {
	case f.hang[id]:
		<-ctx.Done()
		return nil, ctx.Err()
	case f.fail[id]:
		return nil, errors.New("boom")
	case f.empty[id]:
		return nil, nil
	}
	return []media.ServerItem{{ID: "item-" + id, Kind: media.KindMovie}}, nil
}

var serverCfg = config.ServerConfig{Kind: "emby", URL: "https://emby.example.com", APIKey: "key"}

func hit(id int, status seerr.MediaStatus) seerr.MediaResult {
	r := seerr.MediaResult{ID: id, MediaType: seerr.MediaTypeMovie, Title: "Movie " + strconv.Itoa(id), ReleaseDate: "2001-01-01"}
	if status != 0 {
		r.MediaInfo = &seerr.MediaInfo{TMDBID: id, Status: status}
	}
	return r
}

func newPipeline(urls *fakeURLs, lookup *fakeLookup, lookupTimeout time.Duration) *Pipeline {
	return New(Options{
		URLs:          urls,
		NewLookup:     func(cfg config.ServerConfig, baseURL string) Lookup { return lookup },
		LookupTimeout: lookupTimeout,
	})
}

func TestStatusFromCode(t *testing.T) {
	cases := map[seerr.MediaStatus]Status{
		5: StatusAvailable,
		4: StatusPartial,
		3: StatusProcessing,
		2: StatusPending,
		1: StatusUnknown,
		0: StatusNotRequested,
		9: StatusNotRequested,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFromCode(code), "code %d", code)
	}

	assert.Equal(t, "Not Requested", StatusNotRequested.Label())
	assert.Equal(t, "Partially Available", StatusPartial.Label())
	assert.Equal(t, "Available", StatusAvailable.Label())
}

func TestEnrich_TruncatesAndPreservesOrder(t *testing.T) {
	urls := &fakeURLs{}
	lookup := &fakeLookup{}
	p := newPipeline(urls, lookup, time.Second)

	var hits []seerr.MediaResult
	for i := 1; i <= 7; i++ {
		hits = append(hits, hit(i, seerr.MediaStatusAvailable))
	}

	results := p.Enrich(context.Background(), serverCfg, hits, "movie")

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, i+1, r.TMDbID)
		assert.Equal(t, "https://emby.example.com", r.ServerURL)
		assert.Equal(t, "https://emby.example.com/web/index.html#!/item?id=item-"+strconv.Itoa(i+1), r.ServerDeepLink)
	}
	assert.Len(t, lookup.seen, 5)
	assert.Equal(t, 1, urls.calls, "base URL resolved once per batch")
}

func TestEnrich_LinksCarryLearnedServerID(t *testing.T) {
	lookup := &fakeLookup{serverID: "learned"}
	ids := mediaserver.NewServerIDs()
	p := New(Options{
		URLs:      &fakeURLs{},
		NewLookup: func(cfg config.ServerConfig, baseURL string) Lookup { return lookup },
		ServerIDs: ids,
	})
	hits := []seerr.MediaResult{hit(1, seerr.MediaStatusAvailable)}

	for i := 0; i < 2; i++ {
		results := p.Enrich(context.Background(), serverCfg, hits, "q")
		assert.Equal(t, "https://emby.example.com/web/index.html#!/item?id=item-1&serverId=learned", results[0].ServerDeepLink)
	}
	assert.Equal(t, 1, lookup.publicCalls)

	ids.Clear()
	lookup.serverID = "replaced"
	results := p.Enrich(context.Background(), serverCfg, hits, "q")
	assert.Equal(t, "https://emby.example.com/web/index.html#!/item?id=item-1&serverId=replaced", results[0].ServerDeepLink)
	assert.Equal(t, 2, lookup.publicCalls)
}

func TestEnrich_ConfiguredServerIDSkipsLearning(t *testing.T) {
	lookup := &fakeLookup{serverID: "learned"}
	p := newPipeline(&fakeURLs{}, lookup, time.Second)

	cfg := serverCfg
	cfg.ServerID = "pinned"
	results := p.Enrich(context.Background(), cfg, []seerr.MediaResult{hit(1, seerr.MediaStatusAvailable)}, "q")

	assert.Equal(t, "https://emby.example.com/web/index.html#!/item?id=item-1&serverId=pinned", results[0].ServerDeepLink)
	assert.Zero(t, lookup.publicCalls)
}

func TestEnrich_HangingLookupOnlyLosesItsLink(t *testing.T) {
	lookup := &fakeLookup{hang: map[string]bool{"3": true}}
	p := newPipeline(&fakeURLs{}, lookup, 100*time.Millisecond)

	var hits []seerr.MediaResult
	for i := 1; i <= 5; i++ {
		hits = append(hits, hit(i, seerr.MediaStatusAvailable))
	}

	start := time.Now()
	results := p.Enrich(context.Background(), serverCfg, hits, "movie")
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, results, 5)
	for i, r := range results {
		if i == 2 {
			assert.Empty(t, r.ServerDeepLink)
			assert.Empty(t, r.ServerURL)
			continue
		}
		assert.NotEmpty(t, r.ServerDeepLink, "result %d", i)
	}
}

func TestEnrich_FailedAndMissingLookupsAreSwallowed(t *testing.T) {
	lookup := &fakeLookup{fail: map[string]bool{"1": true}, empty: map[string]bool{"2": true}}
	p := newPipeline(&fakeURLs{}, lookup, time.Second)

	results := p.Enrich(context.Background(), serverCfg, []seerr.MediaResult{
		hit(1, seerr.MediaStatusAvailable),
		hit(2, seerr.MediaStatusPartiallyAvail),
		hit(3, seerr.MediaStatusPartiallyAvail),
	}, "q")

	assert.Empty(t, results[0].ServerDeepLink)
	assert.Empty(t, results[1].ServerDeepLink)
	assert.NotEmpty(t, results[2].ServerDeepLink)
	assert.Equal(t, StatusPartial, results[2].Status)
}

func TestEnrich_OnlyLinkableStatusesAreLookedUp(t *testing.T) {
	urls := &fakeURLs{}
	lookup := &fakeLookup{}
	p := newPipeline(urls, lookup, time.Second)

	results := p.Enrich(context.Background(), serverCfg, []seerr.MediaResult{
		hit(1, 0),
		hit(2, seerr.MediaStatusPending),
		hit(3, seerr.MediaStatusProcessing),
	}, "q")

	require.Len(t, results, 3)
	assert.Equal(t, StatusNotRequested, results[0].Status)
	assert.Equal(t, "Pending", results[1].StatusLabel)
	assert.Equal(t, StatusProcessing, results[2].Status)
	assert.Empty(t, lookup.seen)
	assert.Zero(t, urls.calls)
}

func TestEnrich_UnconfiguredServerStillClassifies(t *testing.T) {
	urls := &fakeURLs{}
	lookup := &fakeLookup{}
	p := newPipeline(urls, lookup, time.Second)

	results := p.Enrich(context.Background(), config.ServerConfig{}, []seerr.MediaResult{hit(1, seerr.MediaStatusAvailable)}, "q")

	require.Len(t, results, 1)
	assert.Equal(t, StatusAvailable, results[0].Status)
	assert.Empty(t, results[0].ServerDeepLink)
	assert.Zero(t, urls.calls)
}

func TestEnrich_BaseFields(t *testing.T) {
	p := newPipeline(&fakeURLs{}, &fakeLookup{}, time.Second)

	results := p.Enrich(context.Background(), serverCfg, []seerr.MediaResult{
		{ID: 1396, MediaType: seerr.MediaTypeTV, Name: "Breaking Bad", FirstAirDate: "2008-01-20", PosterPath: "/bb.jpg"},
	}, "breaking")

	r := results[0]
	assert.Equal(t, "Breaking Bad", r.Title)
	assert.Equal(t, 2008, r.Year)
	assert.Equal(t, "https://image.tmdb.org/t/p/w300/bb.jpg", r.PosterURL)
	assert.Equal(t, seerr.MediaTypeTV, r.MediaType)
	assert.Equal(t, "Breaking Bad", r.SourceHit.Name)
}

func TestEnrich_EmptyHits(t *testing.T) {
	p := newPipeline(&fakeURLs{}, &fakeLookup{}, time.Second)
	assert.Empty(t, p.Enrich(context.Background(), serverCfg, nil, "q"))
}
