package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive device list and remote control.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/chorus-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	// The heartbeat runs for exactly as long as the view is visible.
	stop := r.registry.StartHeartbeat(ctx)
	defer stop()

	model := ui.NewModel(ctx, r.registry, r.arbiter, r.relay)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
