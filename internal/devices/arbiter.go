package devices

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
)

// Arbiter enforces best-effort single-writer semantics for playback: at
// most one device per user holds the active flag at a committed point in
// time. Its two-write activate sequence admits a window where concurrent
// activators both believe they won; last write wins, and the liveness
// filter bounds how long a dead device can masquerade as active.
type Arbiter struct {
	store    store.Store
	registry *Registry
	logger   *log.Logger
}

// NewArbiter creates an arbiter bound to the registry's device identity.
func NewArbiter(st store.Store, registry *Registry, logger *log.Logger) *Arbiter {
	return &Arbiter{store: st, registry: registry, logger: logger}
}

// Activate makes this device the authoritative player: deactivate every
// device row for the user, then activate this device's row. The two
// writes are not atomic; a concurrent activator is self-corrected by the
// next heartbeat-driven consistency check.
func (a *Arbiter) Activate(ctx context.Context) error {
	deviceID := a.registry.DeviceID()
	if deviceID == "" {
		return shared.ErrNotRegistered
	}

	deactivate := store.Row{"is_active": false}
	if err := a.store.Update(ctx, Table, store.Filter{"user_id": a.registry.UserID()}, deactivate); err != nil {
		return fmt.Errorf("failed to deactivate siblings: %w", err)
	}

	activate := store.Row{"is_active": true, "last_seen": timestamp(a.registry.now())}
	if err := a.store.Update(ctx, Table, store.Filter{"id": deviceID}, activate); err != nil {
		return fmt.Errorf("failed to activate device: %w", err)
	}

	a.logger.Info("device activated", "device_id", deviceID)
	return nil
}

// Transfer hands playback to the target device: deactivate self, then
// write the full playback snapshot into the target's row with the active
// flag set. A logical handoff, not a push: the target learns of it when
// it next observes its own row.
func (a *Arbiter) Transfer(ctx context.Context, targetID string, snapshot models.PlaybackSnapshot) error {
	deviceID := a.registry.DeviceID()
	if deviceID == "" {
		return shared.ErrNotRegistered
	}
	if targetID == "" || targetID == deviceID {
		return fmt.Errorf("transfer target %q: %w", targetID, shared.ErrInvalidInput)
	}

	deactivate := store.Row{"is_active": false}
	if err := a.store.Update(ctx, Table, store.Filter{"id": deviceID}, deactivate); err != nil {
		return fmt.Errorf("failed to deactivate self: %w", err)
	}

	track, err := jsonValue(snapshot.CurrentTrack)
	if err != nil {
		return err
	}
	queue, err := jsonValue(snapshot.QueueIDs)
	if err != nil {
		return err
	}

	patch := store.Row{
		"is_active":     true,
		"current_track": track,
		"position_ms":   snapshot.PositionMS,
		"is_playing":    snapshot.IsPlaying,
		"volume":        snapshot.Volume,
		"queue_ids":     queue,
	}
	if err := a.store.Update(ctx, Table, store.Filter{"id": targetID}, patch); err != nil {
		return fmt.Errorf("failed to hand off playback: %w", err)
	}

	a.logger.Info("playback transferred", "from", deviceID, "to", targetID)
	return nil
}

// Authoritative returns the device currently authoritative for playback:
// active AND seen within the arbitration window. Returns nil when no
// device qualifies, in which case callers treat the local device as
// authoritative.
func (a *Arbiter) Authoritative(ctx context.Context) (*models.Device, error) {
	devices, err := a.registry.listForUser(ctx, a.registry.UserID())
	if err != nil {
		return nil, err
	}

	now := a.registry.now()
	for _, d := range devices {
		if d.IsActive && d.SeenWithin(ArbitrationWindow, now) {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}
