package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chorusfm/chorus/internal/models"
)

// devicesFetchedMsg carries the result of a device listing.
type devicesFetchedMsg struct {
	devices []models.Device
	err     error
}

// actionDoneMsg reports the outcome of an activate, transfer, or relayed
// command. A refresh follows so the list reflects the new state.
type actionDoneMsg struct {
	status string
	err    error
}

// refreshTickMsg drives the periodic re-listing of devices.
type refreshTickMsg time.Time

func refreshTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
