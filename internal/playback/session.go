package playback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/devices"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
)

// Player is the local playback element the session drives. Implementations
// live with the audio output, outside this engine.
type Player interface {
	SetPlaying(playing bool)
	SeekTo(positionMS int)
	SetVolume(volume float64)
	SetTrack(track models.TrackSnapshot)
	Skip(direction string)
}

// Session is the authoritative device's loop: it observes this device's
// own row through the store's change subscription, re-derives local
// playback intent from the row's fields on every change, and reflects the
// resulting state back for other devices to read. The subscription is
// held open only while a device view is visible or this device is active.
type Session struct {
	deviceID string
	store    store.Store
	player   Player
	logger   *log.Logger
}

// NewSession binds a session to this device's row.
func NewSession(st store.Store, deviceID string, player Player, logger *log.Logger) *Session {
	return &Session{deviceID: deviceID, store: st, player: player, logger: logger}
}

// Start opens the row subscription. The returned stop function closes it.
func (s *Session) Start(ctx context.Context) (stop func(), err error) {
	if s.deviceID == "" {
		return nil, shared.ErrNotRegistered
	}

	filter := store.Filter{"id": s.deviceID}
	unsub, err := s.store.Subscribe(ctx, devices.Table, filter, func(ev store.Event) {
		s.apply(ctx, ev.Row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to observe device row: %w", err)
	}
	return unsub, nil
}

// apply re-derives playback intent from a changed row. The side-channel
// SKIP annotation is acted on and then stripped so it fires exactly once
// per observation.
func (s *Session) apply(ctx context.Context, row store.Row) {
	var device models.Device
	data, err := json.Marshal(row)
	if err == nil {
		err = json.Unmarshal(data, &device)
	}
	if err != nil {
		s.logger.Debug("unreadable device row change", "err", err)
		return
	}

	s.player.SetPlaying(device.IsPlaying)
	s.player.SeekTo(device.PositionMS)
	s.player.SetVolume(device.Volume)

	if device.CurrentTrack == nil {
		return
	}

	if cmd := device.CurrentTrack.Command; cmd != nil && cmd.Type == models.CommandSkip {
		s.player.Skip(cmd.Value)
		if err := s.stripCommand(ctx, *device.CurrentTrack); err != nil {
			s.logger.Warn("failed to strip command annotation", "err", err)
		}
		return
	}

	s.player.SetTrack(*device.CurrentTrack)
}

// stripCommand writes the track snapshot back without its annotation.
func (s *Session) stripCommand(ctx context.Context, track models.TrackSnapshot) error {
	track.Command = nil

	data, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}
	var val any
	if err := json.Unmarshal(data, &val); err != nil {
		return fmt.Errorf("failed to rebuild track value: %w", err)
	}

	return s.store.Update(ctx, devices.Table, store.Filter{"id": s.deviceID}, store.Row{"current_track": val})
}

// ReportState reflects the local player's state into this device's row so
// sibling devices read fresh playback fields.
func (s *Session) ReportState(ctx context.Context, snapshot models.PlaybackSnapshot) error {
	if s.deviceID == "" {
		return shared.ErrNotRegistered
	}

	var track any
	if snapshot.CurrentTrack != nil {
		data, err := json.Marshal(snapshot.CurrentTrack)
		if err != nil {
			return fmt.Errorf("failed to encode track: %w", err)
		}
		if err := json.Unmarshal(data, &track); err != nil {
			return fmt.Errorf("failed to rebuild track value: %w", err)
		}
	}

	patch := store.Row{
		"current_track": track,
		"position_ms":   snapshot.PositionMS,
		"is_playing":    snapshot.IsPlaying,
		"volume":        snapshot.Volume,
	}
	if snapshot.QueueIDs != nil {
		patch["queue_ids"] = snapshot.QueueIDs
	}
	return s.store.Update(ctx, devices.Table, store.Filter{"id": s.deviceID}, patch)
}
