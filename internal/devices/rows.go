package devices

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/store"
)

// Table is the device table name in the shared store.
const Table = "devices"

// deviceToRow flattens a Device into a store row through its JSON form.
func deviceToRow(d models.Device) (store.Row, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device: %w", err)
	}
	var row store.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("failed to build device row: %w", err)
	}
	return row, nil
}

// rowToDevice rebuilds a Device from a store row.
func rowToDevice(row store.Row) (models.Device, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return models.Device{}, fmt.Errorf("failed to encode row: %w", err)
	}
	var d models.Device
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Device{}, fmt.Errorf("failed to decode device row: %w", err)
	}
	return d, nil
}

// rowsToDevices converts a Select result, skipping undecodable rows.
func rowsToDevices(rows []store.Row) []models.Device {
	out := make([]models.Device, 0, len(rows))
	for _, row := range rows {
		if d, err := rowToDevice(row); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// trackWithCommand returns the row value for currentTrack with a SKIP
// annotation merged in. A nil track still carries the annotation so the
// target can act on it.
func trackWithCommand(track *models.TrackSnapshot, value string) *models.TrackSnapshot {
	out := &models.TrackSnapshot{}
	if track != nil {
		copied := *track
		out = &copied
	}
	out.Command = &models.CommandAnnotation{Type: models.CommandSkip, Value: value}
	return out
}

// jsonValue converts a typed value into its row-store representation.
func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

// timestamp renders t in the row store's wire format.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
