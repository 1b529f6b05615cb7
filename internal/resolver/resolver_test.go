package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/chorusfm/chorus/internal/mirrors"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
)

func newTestResolver(t *testing.T, poolA, poolB []string) *Resolver {
	t.Helper()
	registry, err := mirrors.NewRegistry(shared.MirrorsConfig{
		PoolA:          poolA,
		PoolB:          poolB,
		RequestsPerSec: 1000,
	})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	logger := shared.NewLogger(io.Discard)
	r, err := New(registry, nil, http.DefaultClient, logger)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return r
}

const pipedStreamsBody = `{
	"audioStreams": [
		{"url": "https://cdn/a-low", "bitrate": 64000, "mimeType": "audio/mp4"},
		{"url": "https://cdn/a-high", "bitrate": 320000, "mimeType": "audio/mp4"}
	],
	"videoStreams": [
		{"url": "https://cdn/v", "bitrate": 1000000, "mimeType": "video/mp4"}
	]
}`

const invidiousVideoBody = `{
	"adaptiveFormats": [
		{"url": "https://cdn/b-audio", "bitrate": "128000", "type": "audio/mp4; codecs=\"mp4a.40.2\""},
		{"url": "https://cdn/b-video", "bitrate": "900000", "type": "video/mp4; codecs=\"avc1\""}
	]
}`

func TestResolve(t *testing.T) {
	t.Run("PoolAWins", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(pipedStreamsBody))
		}))
		defer srv.Close()

		r := newTestResolver(t, []string{srv.URL}, nil)

		desc, err := r.Resolve(context.Background(), "abc123", models.QualityHigh)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if desc.Provenance != TierPoolA {
			t.Errorf("expected provenance %s, got %s", TierPoolA, desc.Provenance)
		}
		if desc.AudioURL != "https://cdn/a-high" {
			t.Errorf("expected high-bitrate audio, got %s", desc.AudioURL)
		}
	})

	t.Run("EscalatesToPoolB", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()

		working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(invidiousVideoBody))
		}))
		defer working.Close()

		r := newTestResolver(t, []string{failing.URL}, []string{working.URL})

		desc, err := r.Resolve(context.Background(), "abc123", models.QualityNormal)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if desc.Provenance != TierPoolB {
			t.Errorf("expected provenance %s, got %s", TierPoolB, desc.Provenance)
		}
		if desc.AudioURL != "https://cdn/b-audio" {
			t.Errorf("expected pool B audio, got %s", desc.AudioURL)
		}
		if desc.VideoURL != "https://cdn/b-video" {
			t.Errorf("expected pool B video, got %s", desc.VideoURL)
		}
	})

	t.Run("ExhaustionIsErrNoStream", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer failing.Close()

		r := newTestResolver(t, []string{failing.URL}, []string{failing.URL})

		_, err := r.Resolve(context.Background(), "abc123", models.QualityNormal)
		if !errors.Is(err, shared.ErrNoStream) {
			t.Errorf("expected ErrNoStream, got %v", err)
		}
	})

	t.Run("EmptyCatalogID", func(t *testing.T) {
		r := newTestResolver(t, nil, nil)

		_, err := r.Resolve(context.Background(), "", models.QualityNormal)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("InvalidQuality", func(t *testing.T) {
		r := newTestResolver(t, nil, nil)

		_, err := r.Resolve(context.Background(), "abc123", models.Quality("ultra"))
		if !errors.Is(err, shared.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
	})

	t.Run("ExtractorWinsFirst", func(t *testing.T) {
		registry, err := mirrors.NewRegistry(shared.MirrorsConfig{
			PoolA:          []string{"https://unreachable.invalid"},
			RequestsPerSec: 1000,
		})
		if err != nil {
			t.Fatalf("failed to create registry: %v", err)
		}

		extractor := extractorFunc(func(ctx context.Context, catalogID string) ([]models.StreamFormat, error) {
			return []models.StreamFormat{
				{URL: "https://cdn/direct", Bitrate: 160000, HasAudio: true},
			}, nil
		})

		r, err := New(registry, extractor, http.DefaultClient, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("failed to create resolver: %v", err)
		}

		desc, err := r.Resolve(context.Background(), "abc123", models.QualityNormal)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if desc.Provenance != TierExtractor {
			t.Errorf("expected provenance %s, got %s", TierExtractor, desc.Provenance)
		}
		if desc.AudioURL != "https://cdn/direct" {
			t.Errorf("expected extractor audio, got %s", desc.AudioURL)
		}
	})
}

// extractorFunc adapts a function to the Extractor interface.
type extractorFunc func(ctx context.Context, catalogID string) ([]models.StreamFormat, error)

func (f extractorFunc) Extract(ctx context.Context, catalogID string) ([]models.StreamFormat, error) {
	return f(ctx, catalogID)
}

func TestSearch(t *testing.T) {
	pipedSearchBody := `{
		"items": [
			{"url": "/watch?v=vid1", "title": "Song One", "uploaderName": "Artist A", "duration": 210, "thumbnail": "https://cdn/t1"},
			{"url": "/watch?v=vid2", "title": "Song Two", "uploaderName": "Artist B", "duration": 185, "thumbnail": "https://cdn/t2"}
		]
	}`

	t.Run("PoolAResults", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("filter"); got != "music_songs" {
				t.Errorf("expected music_songs filter, got %q", got)
			}
			w.Write([]byte(pipedSearchBody))
		}))
		defer srv.Close()

		r := newTestResolver(t, []string{srv.URL}, nil)

		results, err := r.Search(context.Background(), "song")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID != "vid1" {
			t.Errorf("expected id vid1 from watch URL, got %q", results[0].ID)
		}
		if results[0].Artist != "Artist A" {
			t.Errorf("expected Artist A, got %q", results[0].Artist)
		}
	})

	t.Run("SecondQueryServedFromCache", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(pipedSearchBody))
		}))
		defer srv.Close()

		r := newTestResolver(t, []string{srv.URL}, nil)

		if _, err := r.Search(context.Background(), "song"); err != nil {
			t.Fatalf("first search failed: %v", err)
		}
		first := hits.Load()

		if _, err := r.Search(context.Background(), "song"); err != nil {
			t.Fatalf("second search failed: %v", err)
		}
		if hits.Load() != first {
			t.Errorf("second search should be cached, hits went %d -> %d", first, hits.Load())
		}
	})

	t.Run("PoolBBareArray", func(t *testing.T) {
		body := `[
			{"videoId": "vidB", "title": "Song B", "author": "Artist C", "lengthSeconds": 200,
			 "videoThumbnails": [{"url": "https://cdn/tb"}]}
		]`
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer failing.Close()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		defer srv.Close()

		r := newTestResolver(t, []string{failing.URL}, []string{srv.URL})

		results, err := r.Search(context.Background(), "song b")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(results) != 1 || results[0].ID != "vidB" {
			t.Fatalf("unexpected results: %+v", results)
		}
		if results[0].ArtworkURL != "https://cdn/tb" {
			t.Errorf("expected first thumbnail, got %q", results[0].ArtworkURL)
		}
	})

	t.Run("ExhaustionYieldsEmptySlice", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer failing.Close()

		r := newTestResolver(t, []string{failing.URL}, []string{failing.URL})

		results, err := r.Search(context.Background(), "song")
		if err != nil {
			t.Fatalf("exhausted search should not error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected empty results, got %+v", results)
		}
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		r := newTestResolver(t, nil, nil)

		if _, err := r.Search(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestWatchID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"QueryParam", "/watch?v=abc123", "abc123"},
		{"PathStyle", "/watch/abc123", "abc123"},
		{"Passthrough", "abc123", "abc123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := watchID(tc.url); got != tc.want {
				t.Errorf("watchID(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}
