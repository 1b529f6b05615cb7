package mirrors

import (
	"math/rand"
	"net/http"
	"net/url"
	"sync"

	"github.com/chorusfm/chorus/internal/shared"
	"golang.org/x/time/rate"
)

// Built-in pools. Pool A instances answer the piped-style API
// ({audioStreams, videoStreams}); pool B instances answer the
// invidious-style API ({adaptiveFormats}). The pools are disjoint.
var (
	defaultPoolA = []string{
		"https://pipedapi.kavin.rocks",
		"https://pipedapi.adminforge.de",
		"https://pipedapi.leptons.xyz",
		"https://api.piped.private.coffee",
		"https://pipedapi.drgns.space",
		"https://pipedapi.ducks.party",
		"https://piapi.ggtyler.dev",
		"https://pipedapi.reallyaweso.me",
	}
	defaultPoolB = []string{
		"https://inv.nadeko.net",
		"https://invidious.f5.si",
		"https://invidious.nerdvpn.de",
		"https://yewtu.be",
	}
)

// ProfileKind selects which client a header profile imitates.
type ProfileKind int

const (
	ProfileMobile ProfileKind = iota
	ProfileDesktop
)

const (
	mobileUA  = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Registry exposes the mirror pools, header-profile generation, and a
// per-host rate limiter shared by all races.
type Registry struct {
	poolA    []string
	poolB    []string
	override *shared.CurlHeaders
	perSec   rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRegistry builds a Registry, falling back to the built-in pools for
// any empty override.
func NewRegistry(cfg shared.MirrorsConfig) (*Registry, error) {
	r := &Registry{
		poolA:    defaultPoolA,
		poolB:    defaultPoolB,
		perSec:   rate.Limit(2),
		limiters: make(map[string]*rate.Limiter),
	}
	if len(cfg.PoolA) > 0 {
		r.poolA = cfg.PoolA
	}
	if len(cfg.PoolB) > 0 {
		r.poolB = cfg.PoolB
	}
	if cfg.RequestsPerSec > 0 {
		r.perSec = rate.Limit(cfg.RequestsPerSec)
	}
	if cfg.CurlHeadersPath != "" {
		override, err := shared.ParseCurlFile(cfg.CurlHeadersPath)
		if err != nil {
			return nil, err
		}
		r.override = override
	}
	return r, nil
}

// PoolA returns a fresh random permutation of the pool-A instances.
func (r *Registry) PoolA() []string { return Shuffle(r.poolA) }

// PoolB returns a fresh random permutation of the pool-B instances.
func (r *Registry) PoolB() []string { return Shuffle(r.poolB) }

// Shuffle returns a randomized copy of the given provider pool. The input
// slice is never modified.
func Shuffle(pool []string) []string {
	out := make([]string, len(pool))
	copy(out, pool)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// HeaderProfile returns a header set for a request to rawURL, imitating a
// mobile or desktop browser. Origin and Referer are derived from the
// URL's own origin so the request looks like it came from the mirror's
// frontend. Saved curl headers, when configured, are overlaid last.
func (r *Registry) HeaderProfile(rawURL string, kind ProfileKind) http.Header {
	h := HeaderProfile(rawURL, kind)
	if r.override != nil {
		for k, v := range r.override.Headers {
			h.Set(k, v)
		}
		if r.override.Cookie != "" {
			h.Set("Cookie", r.override.Cookie)
		}
	}
	return h
}

// HeaderProfile is the pure variant used when no override profile exists.
func HeaderProfile(rawURL string, kind ProfileKind) http.Header {
	h := http.Header{}
	if kind == ProfileMobile {
		h.Set("User-Agent", mobileUA)
		h.Set("Sec-CH-UA-Mobile", "?1")
	} else {
		h.Set("User-Agent", desktopUA)
		h.Set("Sec-CH-UA-Mobile", "?0")
	}
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en-US,en;q=0.9")

	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && u.Host != "" {
		origin := u.Scheme + "://" + u.Host
		h.Set("Origin", origin)
		h.Set("Referer", origin+"/")
	}
	return h
}

// Limiter returns the shared rate limiter for the instance hosting rawURL.
func (r *Registry) Limiter(rawURL string) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[host]
	if !ok {
		lim = rate.NewLimiter(r.perSec, 1)
		r.limiters[host] = lim
	}
	return lim
}
