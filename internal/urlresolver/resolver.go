// Package urlresolver picks between a target's local and public base URL.
// The local URL is probed once per fingerprint and the verdict, success or
// failure, is cached until Invalidate is called.
package urlresolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/gateway"
	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/Nomadcxx/jellybridge/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultProbeTimeout = 3 * time.Second

// TargetKind names the logical service a URL belongs to.
type TargetKind string

const (
	TargetServer     TargetKind = "server"
	TargetJellyseerr TargetKind = "jellyseerr"
)

func ParseTargetKind(s string) (TargetKind, error) {
	switch TargetKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetServer:
		return TargetServer, nil
	case TargetJellyseerr, "recommendation", "seerr":
		return TargetJellyseerr, nil
	default:
		return "", fmt.Errorf("unknown target %q (want server or jellyseerr)", s)
	}
}

// Target describes one service with an optional LAN address.
type Target struct {
	Kind      TargetKind
	LocalURL  string
	PublicURL string
	ProbePath string
	Timeout   time.Duration
}

// Fingerprint identifies the target and its configured URLs. Changing either
// URL yields a different key.
func (t Target) Fingerprint() string {
	return string(t.Kind) + "|" + cleanURL(t.LocalURL) + "|" + cleanURL(t.PublicURL)
}

func cleanURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

// Prober checks that a URL answers 2xx within timeout. *gateway.Gateway
// satisfies it.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, url string, timeout time.Duration) error

func (f ProberFunc) Probe(ctx context.Context, url string, timeout time.Duration) error {
	return f(ctx, url, timeout)
}

type Option func(*Resolver)

func WithCache(c Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// Resolver is safe for concurrent use. Concurrent resolutions of the same
// fingerprint share one probe.
type Resolver struct {
	cache  Cache
	prober Prober
	logger *logging.Logger
	group  singleflight.Group
	gen    atomic.Uint64
}

func New(prober Prober, opts ...Option) *Resolver {
	r := &Resolver{
		cache:  NewMemoryCache(),
		prober: prober,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the base URL to use for t.
func (r *Resolver) Resolve(ctx context.Context, t Target) string {
	return r.ResolveEntry(ctx, t).URL
}

// ResolveEntry is Resolve plus whether the local URL was chosen.
func (r *Resolver) ResolveEntry(ctx context.Context, t Target) Entry {
	local, public := cleanURL(t.LocalURL), cleanURL(t.PublicURL)
	key := t.Fingerprint()
	if local == "" {
		return Entry{Key: key, URL: public}
	}

	if e, ok := r.cache.Get(key); ok {
		metrics.URLCacheLookupsTotal.WithLabelValues("hit").Inc()
		return e
	}
	metrics.URLCacheLookupsTotal.WithLabelValues("miss").Inc()

	gen := r.gen.Load()
	// The shared probe outlives any one caller; the probe timeout bounds it.
	probeCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		if e, ok := r.cache.Get(key); ok {
			return e, nil
		}

		entry := r.probe(probeCtx, t, key, local, public)
		// A probe that straddled Invalidate must not repopulate the cache.
		if r.gen.Load() == gen {
			r.cache.Set(entry)
		}
		return entry, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Entry)
	case <-ctx.Done():
		r.logger.Debug("urlresolver", "Caller cancelled while waiting for probe",
			logging.F("target", t.Kind))
		return Entry{Key: key, URL: public}
	}
}

func (r *Resolver) probe(ctx context.Context, t Target, key, local, public string) Entry {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	probeURL, err := gateway.JoinURL(local, t.ProbePath)
	if err == nil {
		start := time.Now()
		err = r.prober.Probe(ctx, probeURL, timeout)
		metrics.ObserveSince("probe", start)
	}

	if err == nil {
		metrics.URLProbesTotal.WithLabelValues(string(t.Kind), "local").Inc()
		r.logger.Info("urlresolver", "Local URL reachable",
			logging.F("target", t.Kind),
			logging.F("url", local))
		return Entry{Key: key, URL: local, IsLocal: true}
	}

	metrics.URLProbesTotal.WithLabelValues(string(t.Kind), "public").Inc()
	r.logger.Info("urlresolver", "Local URL unreachable, using public URL",
		logging.F("target", t.Kind),
		logging.F("local", local),
		logging.F("public", public),
		logging.F("reason", gateway.UserMessage(err)))
	return Entry{Key: key, URL: public}
}

// Invalidate drops every cached verdict. Call it whenever endpoint settings
// change.
func (r *Resolver) Invalidate() {
	r.gen.Add(1)
	r.cache.Clear()
	r.logger.Debug("urlresolver", "URL cache cleared")
}

// Reprobe forgets t's cached verdict and resolves it again.
func (r *Resolver) Reprobe(ctx context.Context, t Target) Entry {
	r.cache.Delete(t.Fingerprint())
	return r.ResolveEntry(ctx, t)
}

// IsUsingLocal reports whether t currently resolves to its local URL. It
// never probes and returns false when nothing is cached.
func (r *Resolver) IsUsingLocal(t Target) bool {
	e, ok := r.cache.Get(t.Fingerprint())
	return ok && e.IsLocal
}
