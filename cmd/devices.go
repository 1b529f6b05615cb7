package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chorusfm/chorus/internal/formatter"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// DevicesList prints the user's recently seen devices.
func (r *Runner) DevicesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	online, err := r.registry.ListOnline(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(online, cmd.Bool("pretty"))
	}
	if cmd.Bool("csv") {
		out, err := formatter.DevicesToCSV(online)
		if err != nil {
			return err
		}
		return r.writePlain("%s", out)
	}
	return r.writePlain("%s", formatter.DevicesToText(online, time.Now()))
}

// DevicesActivate makes this device the active player.
func (r *Runner) DevicesActivate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	if err := r.arbiter.Activate(ctx); err != nil {
		return err
	}
	r.writePlain("✓ This device is now the active player\n")
	return nil
}

// DevicesTransfer hands playback to another device. The snapshot handed
// over is this device's own row state.
func (r *Runner) DevicesTransfer(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	targetID := cmd.String("target")
	snapshot, err := r.ownSnapshot(ctx)
	if err != nil {
		return err
	}

	if err := r.arbiter.Transfer(ctx, targetID, snapshot); err != nil {
		return err
	}
	r.writePlain("✓ Playback transferred to %s\n", targetID)
	return nil
}

// RemotePlay resumes playback on the target device.
func (r *Runner) RemotePlay(ctx context.Context, cmd *cli.Command) error {
	return r.sendRemote(ctx, cmd, models.Command{Type: models.CommandPlayPause, Value: true})
}

// RemotePause pauses playback on the target device.
func (r *Runner) RemotePause(ctx context.Context, cmd *cli.Command) error {
	return r.sendRemote(ctx, cmd, models.Command{Type: models.CommandPlayPause, Value: false})
}

// RemoteSeek moves the target device's playback position.
func (r *Runner) RemoteSeek(ctx context.Context, cmd *cli.Command) error {
	position := cmd.IntArg("position")
	if position < 0 {
		return fmt.Errorf("position %d: %w", position, shared.ErrInvalidInput)
	}
	return r.sendRemote(ctx, cmd, models.Command{Type: models.CommandSeek, Value: position})
}

// RemoteVolume sets the target device's volume.
func (r *Runner) RemoteVolume(ctx context.Context, cmd *cli.Command) error {
	level := cmd.FloatArg("level")
	return r.sendRemote(ctx, cmd, models.Command{Type: models.CommandVolume, Value: level})
}

// RemoteSkip skips the target device to the next or previous track.
func (r *Runner) RemoteSkip(ctx context.Context, cmd *cli.Command) error {
	direction := cmd.StringArg("direction")
	return r.sendRemote(ctx, cmd, models.Command{Type: models.CommandSkip, Value: direction})
}

// sendRemote resolves the target device (flag, or the authoritative
// device) and relays the command.
func (r *Runner) sendRemote(ctx context.Context, cmd *cli.Command, command models.Command) error {
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	targetID := cmd.String("target")
	if targetID == "" {
		active, err := r.arbiter.Authoritative(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return fmt.Errorf("no active device and no --target given: %w", shared.ErrDeviceNotFound)
		}
		targetID = active.ID
	}

	if err := r.relay.Send(ctx, targetID, command); err != nil {
		return err
	}
	r.writePlain("✓ %s sent to %s\n", command.Type, targetID)
	return nil
}

// ownSnapshot reads this device's row back as a playback snapshot.
func (r *Runner) ownSnapshot(ctx context.Context) (models.PlaybackSnapshot, error) {
	online, err := r.registry.ListOnline(ctx)
	if err != nil {
		return models.PlaybackSnapshot{}, err
	}
	for _, d := range online {
		if d.ID == r.registry.DeviceID() {
			return models.PlaybackSnapshot{
				CurrentTrack: d.CurrentTrack,
				PositionMS:   d.PositionMS,
				IsPlaying:    d.IsPlaying,
				Volume:       d.Volume,
				QueueIDs:     d.QueueIDs,
			}, nil
		}
	}
	return models.PlaybackSnapshot{}, nil
}
