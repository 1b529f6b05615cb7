package resolver

import (
	"sort"

	"github.com/chorusfm/chorus/internal/models"
)

// selectFormats picks one audio-only and one video-only format from a
// winning tier response. Candidates are sorted by bitrate ascending for
// low quality, descending otherwise, and the head of each sorted list is
// taken independently; either side may be absent.
func selectFormats(formats []models.StreamFormat, quality models.Quality, provenance string) models.StreamDescriptor {
	sorted := make([]models.StreamFormat, len(formats))
	copy(sorted, formats)

	ascending := quality == models.QualityLow
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Bitrate < sorted[j].Bitrate
		}
		return sorted[i].Bitrate > sorted[j].Bitrate
	})

	desc := models.StreamDescriptor{Provenance: provenance}
	for _, f := range sorted {
		if desc.AudioURL == "" && f.HasAudio && !f.HasVideo && f.URL != "" {
			desc.AudioURL = f.URL
		}
		if desc.VideoURL == "" && f.HasVideo && !f.HasAudio && f.URL != "" {
			desc.VideoURL = f.URL
		}
		if desc.AudioURL != "" && desc.VideoURL != "" {
			break
		}
	}
	return desc
}
