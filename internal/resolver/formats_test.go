package resolver

import (
	"testing"

	"github.com/chorusfm/chorus/internal/models"
)

func TestSelectFormats(t *testing.T) {
	audio := func(url string, bitrate int) models.StreamFormat {
		return models.StreamFormat{URL: url, Bitrate: bitrate, MimeType: "audio/mp4", HasAudio: true}
	}
	video := func(url string, bitrate int) models.StreamFormat {
		return models.StreamFormat{URL: url, Bitrate: bitrate, MimeType: "video/mp4", HasVideo: true}
	}

	formats := []models.StreamFormat{
		audio("https://cdn/audio-128", 128000),
		audio("https://cdn/audio-320", 320000),
		audio("https://cdn/audio-64", 64000),
		video("https://cdn/video-hi", 2500000),
		video("https://cdn/video-lo", 500000),
	}

	t.Run("LowQualityPicksLowestBitrate", func(t *testing.T) {
		desc := selectFormats(formats, models.QualityLow, TierPoolA)

		if desc.AudioURL != "https://cdn/audio-64" {
			t.Errorf("expected lowest-bitrate audio, got %s", desc.AudioURL)
		}
		if desc.VideoURL != "https://cdn/video-lo" {
			t.Errorf("expected lowest-bitrate video, got %s", desc.VideoURL)
		}
	})

	t.Run("HighQualityPicksHighestBitrate", func(t *testing.T) {
		desc := selectFormats(formats, models.QualityHigh, TierPoolA)

		if desc.AudioURL != "https://cdn/audio-320" {
			t.Errorf("expected highest-bitrate audio, got %s", desc.AudioURL)
		}
		if desc.VideoURL != "https://cdn/video-hi" {
			t.Errorf("expected highest-bitrate video, got %s", desc.VideoURL)
		}
	})

	t.Run("NormalQualityPicksHighestBitrate", func(t *testing.T) {
		desc := selectFormats(formats, models.QualityNormal, TierPoolA)

		if desc.AudioURL != "https://cdn/audio-320" {
			t.Errorf("expected highest-bitrate audio, got %s", desc.AudioURL)
		}
	})

	t.Run("ProvenanceRecorded", func(t *testing.T) {
		desc := selectFormats(formats, models.QualityNormal, TierPoolB)

		if desc.Provenance != TierPoolB {
			t.Errorf("expected provenance %s, got %s", TierPoolB, desc.Provenance)
		}
	})

	t.Run("AudioOnlyResponse", func(t *testing.T) {
		desc := selectFormats(formats[:3], models.QualityNormal, TierPoolA)

		if desc.AudioURL == "" {
			t.Error("expected audio URL")
		}
		if desc.VideoURL != "" {
			t.Errorf("expected no video URL, got %s", desc.VideoURL)
		}
	})

	t.Run("MuxedFormatsIgnored", func(t *testing.T) {
		muxed := []models.StreamFormat{
			{URL: "https://cdn/muxed", Bitrate: 1000000, HasAudio: true, HasVideo: true},
		}
		desc := selectFormats(muxed, models.QualityNormal, TierPoolA)

		if !desc.Empty() {
			t.Errorf("muxed-only response should yield empty descriptor, got %+v", desc)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		desc := selectFormats(nil, models.QualityNormal, TierPoolA)

		if !desc.Empty() {
			t.Errorf("expected empty descriptor, got %+v", desc)
		}
	})
}
