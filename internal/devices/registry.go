package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
)

const (
	// HeartbeatInterval is how often a live device refreshes lastSeen.
	HeartbeatInterval = 30 * time.Second

	// RegisterWindow bounds "recently active" for the registration
	// decision: become active only if no sibling was seen inside it.
	RegisterWindow = 2 * time.Minute

	// ArbitrationWindow bounds playback authority: a stale isActive flag
	// older than this is ignored by controllers.
	ArbitrationWindow = 5 * time.Minute

	// ListWindow bounds the device-list display, generous enough to
	// tolerate sleep and backgrounding.
	ListWindow = 10 * time.Minute

	conflictRetryDelay = 2 * time.Second
)

// IdentityProvider yields the authenticated user, or ErrNotSignedIn.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// StaticIdentity is an IdentityProvider for a pre-configured user id.
type StaticIdentity struct {
	User models.User
}

func (s StaticIdentity) CurrentUser(ctx context.Context) (*models.User, error) {
	if s.User.ID == "" {
		return nil, shared.ErrNotSignedIn
	}
	u := s.User
	return &u, nil
}

// Registry registers this installation in the shared store and keeps its
// liveness fresh. All cross-device reads go through it.
type Registry struct {
	store    store.Store
	identity IdentityProvider
	install  *InstallationID
	name     string
	kind     string
	logger   *log.Logger
	now      func() time.Time

	deviceID string
	userID   string
}

// NewRegistry creates a device registry. name and kind describe how this
// installation appears in sibling device lists.
func NewRegistry(st store.Store, identity IdentityProvider, install *InstallationID, name, kind string, logger *log.Logger) *Registry {
	if kind == "" {
		kind = "desktop"
	}
	return &Registry{
		store:    st,
		identity: identity,
		install:  install,
		name:     name,
		kind:     kind,
		logger:   logger,
		now:      time.Now,
	}
}

// DeviceID returns this installation's id after registration.
func (r *Registry) DeviceID() string { return r.deviceID }

// UserID returns the owning user's id after registration.
func (r *Registry) UserID() string { return r.userID }

// Register upserts this device's row, deciding on the way in whether it
// should become the active player: yes when no sibling was active and
// recently seen, or when this device's id already holds the active flag.
// An identity conflict regenerates the installation id and retries once;
// persistent failure degrades to local-only playback.
func (r *Registry) Register(ctx context.Context) error {
	user, err := r.identity.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("registration needs an identity: %w", err)
	}
	r.userID = user.ID

	id, err := r.install.Load()
	if err != nil {
		return err
	}

	if err := r.registerAs(ctx, id, user.ID); err != nil {
		if !errors.Is(err, shared.ErrPermissionDenied) {
			return err
		}

		// A previous id collided with another user's cleaned-up row.
		r.logger.Warn("device id conflict, regenerating", "device_id", id)
		fresh, regenErr := r.install.Regenerate()
		if regenErr != nil {
			return regenErr
		}

		select {
		case <-time.After(conflictRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := r.registerAs(ctx, fresh, user.ID); err != nil {
			r.logger.Error("registration failed after id regeneration, staying local-only", "err", err)
			return fmt.Errorf("%w: %v", shared.ErrNotRegistered, err)
		}
		id = fresh
	}

	r.deviceID = id
	r.logger.Info("device registered", "device_id", id, "name", r.name)
	return nil
}

func (r *Registry) registerAs(ctx context.Context, deviceID, userID string) error {
	siblings, err := r.listForUser(ctx, userID)
	if err != nil {
		return err
	}

	now := r.now()
	becomeActive := true
	for _, d := range siblings {
		if !d.IsActive || !d.SeenWithin(RegisterWindow, now) {
			continue
		}
		// A recent active sibling keeps authority unless it is us.
		if d.ID != deviceID {
			becomeActive = false
		}
		break
	}

	device := models.Device{
		ID:       deviceID,
		UserID:   userID,
		Name:     r.name,
		Type:     r.kind,
		IsActive: becomeActive,
		LastSeen: now,
	}
	row, err := deviceToRow(device)
	if err != nil {
		return err
	}
	return r.store.Upsert(ctx, Table, row)
}

// Heartbeat updates only lastSeen on this device's row. A heartbeat
// against a vanished row triggers re-registration.
func (r *Registry) Heartbeat(ctx context.Context) error {
	if r.deviceID == "" {
		return shared.ErrNotRegistered
	}

	rows, err := r.store.Select(ctx, Table, store.Filter{"id": r.deviceID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		r.logger.Warn("device row vanished, re-registering", "device_id", r.deviceID)
		return r.Register(ctx)
	}

	patch := store.Row{"last_seen": timestamp(r.now())}
	return r.store.Update(ctx, Table, store.Filter{"id": r.deviceID}, patch)
}

// StartHeartbeat runs Heartbeat every HeartbeatInterval until the context
// is cancelled or the returned stop function runs. Callers hold it open
// only while a device-management view is visible or this device is the
// active player.
func (r *Registry) StartHeartbeat(ctx context.Context) (stop func()) {
	hbCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.Heartbeat(hbCtx); err != nil {
					r.logger.Debug("heartbeat failed", "err", err)
				}
			case <-hbCtx.Done():
				return
			}
		}
	}()
	return cancel
}

// ListOnline returns this user's devices seen within the display window.
func (r *Registry) ListOnline(ctx context.Context) ([]models.Device, error) {
	devices, err := r.listForUser(ctx, r.userID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	online := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		if d.SeenWithin(ListWindow, now) {
			online = append(online, d)
		}
	}
	return online, nil
}

func (r *Registry) listForUser(ctx context.Context, userID string) ([]models.Device, error) {
	if userID == "" {
		return nil, shared.ErrNotSignedIn
	}
	rows, err := r.store.Select(ctx, Table, store.Filter{"user_id": userID})
	if err != nil {
		return nil, err
	}
	return rowsToDevices(rows), nil
}
