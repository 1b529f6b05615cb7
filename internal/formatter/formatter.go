// package formatter renders devices, descriptors, and search results for
// CLI output (plain text, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
)

// DevicesToText renders a device listing as an aligned plain-text table.
// The active device is marked with an asterisk.
func DevicesToText(devices []models.Device, now time.Time) []byte {
	var buf bytes.Buffer

	if len(devices) == 0 {
		buf.WriteString("No devices online.\n")
		return buf.Bytes()
	}

	for _, d := range devices {
		marker := " "
		if d.IsActive {
			marker = "*"
		}
		age := now.Sub(d.LastSeen).Round(time.Second)
		buf.WriteString(fmt.Sprintf("%s %-24s %-8s seen %s ago", marker, d.Name, d.Type, age))
		if d.CurrentTrack != nil {
			state := "paused"
			if d.IsPlaying {
				state = "playing"
			}
			buf.WriteString(fmt.Sprintf("  [%s %s @ %s]", state, d.CurrentTrack.Title, shared.FormatPosition(d.PositionMS)))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// DevicesToCSV renders a device listing with columns: ID, Name, Type, Active, LastSeen.
func DevicesToCSV(devices []models.Device) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Type", "Active", "LastSeen"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range devices {
		record := []string{
			d.ID,
			d.Name,
			d.Type,
			strconv.FormatBool(d.IsActive),
			d.LastSeen.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DescriptorToText renders a stream descriptor for human reading.
func DescriptorToText(desc *models.StreamDescriptor) []byte {
	var buf bytes.Buffer
	if desc == nil {
		buf.WriteString("No playable stream.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("provenance: %s\n", desc.Provenance))
	if desc.AudioURL != "" {
		buf.WriteString(fmt.Sprintf("audio: %s\n", desc.AudioURL))
	}
	if desc.VideoURL != "" {
		buf.WriteString(fmt.Sprintf("video: %s\n", desc.VideoURL))
	}
	return buf.Bytes()
}

// SearchResultsToText renders search results as a numbered listing.
func SearchResultsToText(results []models.SearchResult) []byte {
	var buf bytes.Buffer
	if len(results) == 0 {
		buf.WriteString("No results.\n")
		return buf.Bytes()
	}

	for i, r := range results {
		buf.WriteString(fmt.Sprintf("%2d. %s - %s [%s] (%s)\n", i+1, r.Artist, r.Title, shared.FormatDuration(r.Duration), r.ID))
	}
	return buf.Bytes()
}

// ToJSON marshals v, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(out, '\n'), nil
}
