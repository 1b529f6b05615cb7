package devices

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
)

// Relay lets any device act as a remote for the authoritative device.
// Commands are translated into partial updates of the target row; there
// is no acknowledgment channel, so delivery is at-most-once and a second
// command sent before the first is observed simply overwrites it.
type Relay struct {
	store  store.Store
	logger *log.Logger
}

// NewRelay creates a command relay over the shared store.
func NewRelay(st store.Store, logger *log.Logger) *Relay {
	return &Relay{store: st, logger: logger}
}

// Send translates a command into a partial update of the target row.
// SKIP has no dedicated field and rides on the currentTrack snapshot as a
// side-channel annotation the target strips after acting.
func (r *Relay) Send(ctx context.Context, targetID string, cmd models.Command) error {
	if targetID == "" {
		return fmt.Errorf("target device: %w", shared.ErrMissingArgument)
	}

	patch, err := r.patchFor(ctx, targetID, cmd)
	if err != nil {
		return err
	}

	if err := r.store.Update(ctx, Table, store.Filter{"id": targetID}, patch); err != nil {
		return fmt.Errorf("failed to relay %s: %w", cmd.Type, err)
	}

	r.logger.Debug("command relayed", "type", cmd.Type, "target", targetID)
	return nil
}

func (r *Relay) patchFor(ctx context.Context, targetID string, cmd models.Command) (store.Row, error) {
	switch cmd.Type {
	case models.CommandPlayPause:
		playing, ok := cmd.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s wants a bool value: %w", cmd.Type, shared.ErrInvalidCommand)
		}
		return store.Row{"is_playing": playing}, nil

	case models.CommandSeek:
		ms, ok := numericValue(cmd.Value)
		if !ok {
			return nil, fmt.Errorf("%s wants a position in ms: %w", cmd.Type, shared.ErrInvalidCommand)
		}
		return store.Row{"position_ms": ms}, nil

	case models.CommandVolume:
		vol, ok := floatValue(cmd.Value)
		if !ok || vol < 0 || vol > 1 {
			return nil, fmt.Errorf("%s wants a volume in [0,1]: %w", cmd.Type, shared.ErrInvalidCommand)
		}
		return store.Row{"volume": vol}, nil

	case models.CommandSetTrack:
		// Accept either a typed snapshot or its decoded JSON form.
		val, err := jsonValue(cmd.Value)
		if err != nil {
			return nil, err
		}
		obj, ok := val.(map[string]any)
		if !ok || obj["id"] == nil {
			return nil, fmt.Errorf("%s wants a track snapshot: %w", cmd.Type, shared.ErrInvalidCommand)
		}
		return store.Row{"current_track": val}, nil

	case models.CommandSkip:
		direction, ok := cmd.Value.(string)
		if !ok || (direction != "next" && direction != "prev") {
			return nil, fmt.Errorf("%s wants next or prev: %w", cmd.Type, shared.ErrInvalidCommand)
		}

		// Annotate the target's current track rather than replacing it, so
		// the snapshot survives the round trip.
		track, err := r.currentTrack(ctx, targetID)
		if err != nil {
			return nil, err
		}
		val, err := jsonValue(trackWithCommand(track, direction))
		if err != nil {
			return nil, err
		}
		return store.Row{"current_track": val}, nil

	default:
		return nil, fmt.Errorf("%q: %w", cmd.Type, shared.ErrInvalidCommand)
	}
}

func (r *Relay) currentTrack(ctx context.Context, targetID string) (*models.TrackSnapshot, error) {
	rows, err := r.store.Select(ctx, Table, store.Filter{"id": targetID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", targetID, shared.ErrDeviceNotFound)
	}
	device, err := rowToDevice(rows[0])
	if err != nil {
		return nil, err
	}
	return device.CurrentTrack, nil
}

func numericValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}
