package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/lrstanley/go-ytdlp"
)

// Extractor is the tier-0 direct video-info resolver. Server-side only; a
// nil Extractor skips tier 0 entirely.
type Extractor interface {
	Extract(ctx context.Context, catalogID string) ([]models.StreamFormat, error)
}

// YTDLPExtractor shells out to yt-dlp for a single authoritative format
// listing. No racing and no header spoofing at this tier.
type YTDLPExtractor struct{}

// NewYTDLPExtractor ensures the yt-dlp binary is available and returns the
// extractor.
func NewYTDLPExtractor(ctx context.Context) (*YTDLPExtractor, error) {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return nil, fmt.Errorf("yt-dlp unavailable: %w", err)
	}
	return &YTDLPExtractor{}, nil
}

type ytdlpFormat struct {
	URL    string  `json:"url"`
	ABR    float64 `json:"abr"`
	VBR    float64 `json:"vbr"`
	TBR    float64 `json:"tbr"`
	ACodec string  `json:"acodec"`
	VCodec string  `json:"vcodec"`
	Ext    string  `json:"ext"`
}

type ytdlpInfo struct {
	Formats []ytdlpFormat `json:"formats"`
}

// Extract dumps the full format listing for a catalog id and normalizes it.
func (e *YTDLPExtractor) Extract(ctx context.Context, catalogID string) ([]models.StreamFormat, error) {
	res, err := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "https://www.youtube.com/watch?v="+catalogID)
	if err != nil {
		return nil, fmt.Errorf("extractor run failed: %w", err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal([]byte(res.Stdout), &info); err != nil {
		return nil, fmt.Errorf("failed to parse extractor output: %w", err)
	}

	formats := make([]models.StreamFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.URL == "" {
			continue
		}
		hasAudio := f.ACodec != "" && f.ACodec != "none"
		hasVideo := f.VCodec != "" && f.VCodec != "none"
		bitrate := f.TBR
		if hasAudio && !hasVideo && f.ABR > 0 {
			bitrate = f.ABR
		} else if hasVideo && !hasAudio && f.VBR > 0 {
			bitrate = f.VBR
		}
		formats = append(formats, models.StreamFormat{
			URL:      f.URL,
			Bitrate:  int(bitrate * 1000), // yt-dlp reports kbps
			MimeType: f.Ext,
			HasAudio: hasAudio,
			HasVideo: hasVideo,
		})
	}
	return formats, nil
}
