package devices

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	testutil "github.com/chorusfm/chorus/internal/testing"
)

func registerTwo(t *testing.T, st *testutil.MemStore) (*Registry, *Registry) {
	t.Helper()
	ctx := context.Background()
	first := newTestRegistry(t, st, "first")
	if err := first.Register(ctx); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	second := newTestRegistry(t, st, "second")
	if err := second.Register(ctx); err != nil {
		t.Fatalf("second registration failed: %v", err)
	}
	return first, second
}

func TestActivate(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("SingleActiveAfterActivate", func(t *testing.T) {
		st := testutil.NewMemStore()
		first, second := registerTwo(t, st)

		arbiter := NewArbiter(st, second, logger)
		if err := arbiter.Activate(ctx); err != nil {
			t.Fatalf("activation failed: %v", err)
		}

		firstRow, _ := st.Get(Table, first.DeviceID())
		secondRow, _ := st.Get(Table, second.DeviceID())
		if firstRow["is_active"] != false {
			t.Error("previous active device should be deactivated")
		}
		if secondRow["is_active"] != true {
			t.Error("activating device should hold the flag")
		}
	})

	t.Run("UnregisteredActivate", func(t *testing.T) {
		st := testutil.NewMemStore()
		r := newTestRegistry(t, st, "never")

		arbiter := NewArbiter(st, r, logger)
		if err := arbiter.Activate(ctx); !errors.Is(err, shared.ErrNotRegistered) {
			t.Errorf("expected ErrNotRegistered, got %v", err)
		}
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("HandsOverSnapshotAndFlag", func(t *testing.T) {
		st := testutil.NewMemStore()
		first, second := registerTwo(t, st)

		snapshot := models.PlaybackSnapshot{
			CurrentTrack: &models.TrackSnapshot{ID: "track-1", Title: "One"},
			PositionMS:   30000,
			IsPlaying:    true,
			Volume:       0.6,
			QueueIDs:     []string{"track-1", "track-2"},
		}

		arbiter := NewArbiter(st, first, logger)
		if err := arbiter.Transfer(ctx, second.DeviceID(), snapshot); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		firstRow, _ := st.Get(Table, first.DeviceID())
		if firstRow["is_active"] != false {
			t.Error("transferring device should deactivate itself")
		}

		secondRow, _ := st.Get(Table, second.DeviceID())
		if secondRow["is_active"] != true {
			t.Error("target should become active")
		}
		if secondRow["position_ms"] != 30000 {
			t.Errorf("expected position 30000, got %v", secondRow["position_ms"])
		}
		track, ok := secondRow["current_track"].(map[string]any)
		if !ok || track["id"] != "track-1" {
			t.Errorf("expected handed-over track, got %v", secondRow["current_track"])
		}
	})

	t.Run("SelfTransferRejected", func(t *testing.T) {
		st := testutil.NewMemStore()
		first, _ := registerTwo(t, st)

		arbiter := NewArbiter(st, first, logger)
		err := arbiter.Transfer(ctx, first.DeviceID(), models.PlaybackSnapshot{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("EmptyTargetRejected", func(t *testing.T) {
		st := testutil.NewMemStore()
		first, _ := registerTwo(t, st)

		arbiter := NewArbiter(st, first, logger)
		if err := arbiter.Transfer(ctx, "", models.PlaybackSnapshot{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAuthoritative(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("ActiveRecentDeviceWins", func(t *testing.T) {
		st := testutil.NewMemStore()
		first, second := registerTwo(t, st)

		arbiter := NewArbiter(st, second, logger)
		authoritative, err := arbiter.Authoritative(ctx)
		if err != nil {
			t.Fatalf("arbitration failed: %v", err)
		}
		if authoritative == nil {
			t.Fatal("expected an authoritative device")
		}
		if authoritative.ID != first.DeviceID() {
			t.Errorf("expected first device to be authoritative, got %s", authoritative.ID)
		}
	})

	t.Run("StaleActiveDeviceLosesAuthority", func(t *testing.T) {
		st := testutil.NewMemStore()
		_, second := registerTwo(t, st)

		// Active flag held by a device last seen past the arbitration
		// window but inside the display window.
		second.now = func() time.Time { return time.Now().Add(ArbitrationWindow + 2*time.Minute) }

		arbiter := NewArbiter(st, second, logger)
		authoritative, err := arbiter.Authoritative(ctx)
		if err != nil {
			t.Fatalf("arbitration failed: %v", err)
		}
		if authoritative != nil {
			t.Errorf("stale active device should not be authoritative, got %s", authoritative.ID)
		}

		// The same staleness still shows up in the device list.
		online, err := second.ListOnline(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(online) == 0 {
			t.Error("devices inside the display window should still be listed")
		}
	})
}
