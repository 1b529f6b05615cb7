package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/chorusfm/chorus/internal/mirrors"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
)

// mirrorClient speaks both mirror API dialects and normalizes their
// responses into provider-agnostic formats.
type mirrorClient struct {
	registry   *mirrors.Registry
	httpClient *http.Client
}

func newMirrorClient(registry *mirrors.Registry, client *http.Client) *mirrorClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &mirrorClient{registry: registry, httpClient: client}
}

// getJSON issues a GET with the given header profile and decodes the body.
// Non-2xx statuses and malformed bodies are plain errors; the race treats
// them as a lost candidate.
func (c *mirrorClient) getJSON(ctx context.Context, rawURL string, kind mirrors.ProfileKind, result any) error {
	if err := c.registry.Limiter(rawURL).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.registry.HeaderProfile(rawURL, kind)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mirror error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// pipedStream mirrors the {audioStreams, videoStreams} response shape.
type pipedStream struct {
	URL      string `json:"url"`
	Bitrate  int    `json:"bitrate"`
	MimeType string `json:"mimeType"`
}

type pipedStreamsResponse struct {
	AudioStreams []pipedStream `json:"audioStreams"`
	VideoStreams []pipedStream `json:"videoStreams"`
}

// StreamsPoolA fetches formats for a catalog id from a pool-A instance.
func (c *mirrorClient) StreamsPoolA(ctx context.Context, base, catalogID string, kind mirrors.ProfileKind) ([]models.StreamFormat, error) {
	var resp pipedStreamsResponse
	endpoint := fmt.Sprintf("%s/streams/%s", strings.TrimRight(base, "/"), url.PathEscape(catalogID))
	if err := c.getJSON(ctx, endpoint, kind, &resp); err != nil {
		return nil, err
	}

	if len(resp.AudioStreams) == 0 && len(resp.VideoStreams) == 0 {
		return nil, fmt.Errorf("empty stream collections: %w", shared.ErrTierExhausted)
	}

	formats := make([]models.StreamFormat, 0, len(resp.AudioStreams)+len(resp.VideoStreams))
	for _, s := range resp.AudioStreams {
		formats = append(formats, models.StreamFormat{URL: s.URL, Bitrate: s.Bitrate, MimeType: s.MimeType, HasAudio: true})
	}
	for _, s := range resp.VideoStreams {
		formats = append(formats, models.StreamFormat{URL: s.URL, Bitrate: s.Bitrate, MimeType: s.MimeType, HasVideo: true})
	}
	return formats, nil
}

// invidiousFormat mirrors the {adaptiveFormats} response shape, where
// bitrate arrives as a decimal string.
type invidiousFormat struct {
	URL     string `json:"url"`
	Bitrate string `json:"bitrate"`
	Type    string `json:"type"`
}

type invidiousVideoResponse struct {
	AdaptiveFormats []invidiousFormat `json:"adaptiveFormats"`
}

// StreamsPoolB fetches formats for a catalog id from a pool-B instance.
func (c *mirrorClient) StreamsPoolB(ctx context.Context, base, catalogID string, kind mirrors.ProfileKind) ([]models.StreamFormat, error) {
	var resp invidiousVideoResponse
	endpoint := fmt.Sprintf("%s/api/v1/videos/%s", strings.TrimRight(base, "/"), url.PathEscape(catalogID))
	if err := c.getJSON(ctx, endpoint, kind, &resp); err != nil {
		return nil, err
	}

	if len(resp.AdaptiveFormats) == 0 {
		return nil, fmt.Errorf("empty adaptiveFormats: %w", shared.ErrTierExhausted)
	}

	formats := make([]models.StreamFormat, 0, len(resp.AdaptiveFormats))
	for _, f := range resp.AdaptiveFormats {
		bitrate, _ := strconv.Atoi(f.Bitrate)
		formats = append(formats, models.StreamFormat{
			URL:      f.URL,
			Bitrate:  bitrate,
			MimeType: f.Type,
			HasAudio: strings.HasPrefix(f.Type, "audio/"),
			HasVideo: strings.HasPrefix(f.Type, "video/"),
		})
	}
	return formats, nil
}

type pipedSearchItem struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	UploaderName string `json:"uploaderName"`
	Duration     int    `json:"duration"`
	Thumbnail    string `json:"thumbnail"`
}

type pipedSearchResponse struct {
	Items []pipedSearchItem `json:"items"`
}

// SearchPoolA runs a catalog search against a pool-A instance.
func (c *mirrorClient) SearchPoolA(ctx context.Context, base, query string, kind mirrors.ProfileKind) ([]models.SearchResult, error) {
	var resp pipedSearchResponse
	endpoint := fmt.Sprintf("%s/search?q=%s&filter=music_songs", strings.TrimRight(base, "/"), url.QueryEscape(query))
	if err := c.getJSON(ctx, endpoint, kind, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("empty search items: %w", shared.ErrTierExhausted)
	}

	results := make([]models.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, models.SearchResult{
			ID:         watchID(item.URL),
			Title:      item.Title,
			Artist:     item.UploaderName,
			Duration:   item.Duration,
			ArtworkURL: item.Thumbnail,
		})
	}
	return results, nil
}

type invidiousSearchItem struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	LengthSeconds   int    `json:"lengthSeconds"`
	VideoThumbnails []struct {
		URL string `json:"url"`
	} `json:"videoThumbnails"`
}

// SearchPoolB runs a catalog search against a pool-B instance, which
// answers with a bare array.
func (c *mirrorClient) SearchPoolB(ctx context.Context, base, query string, kind mirrors.ProfileKind) ([]models.SearchResult, error) {
	var items []invidiousSearchItem
	endpoint := fmt.Sprintf("%s/api/v1/search?q=%s&type=video", strings.TrimRight(base, "/"), url.QueryEscape(query))
	if err := c.getJSON(ctx, endpoint, kind, &items); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("empty search results: %w", shared.ErrTierExhausted)
	}

	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		r := models.SearchResult{
			ID:       item.VideoID,
			Title:    item.Title,
			Artist:   item.Author,
			Duration: item.LengthSeconds,
		}
		if len(item.VideoThumbnails) > 0 {
			r.ArtworkURL = item.VideoThumbnails[0].URL
		}
		results = append(results, r)
	}
	return results, nil
}

// watchID extracts the catalog id from a /watch?v= relative URL.
func watchID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	return strings.TrimPrefix(u.Path, "/watch/")
}

// profileFor alternates header profiles by candidate index parity so half
// a race presents as mobile and half as desktop.
func profileFor(index int) mirrors.ProfileKind {
	if index%2 == 0 {
		return mirrors.ProfileMobile
	}
	return mirrors.ProfileDesktop
}
