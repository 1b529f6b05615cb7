package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/chorusfm/chorus/internal/devices"
	"github.com/chorusfm/chorus/internal/models"
)

const refreshInterval = 10 * time.Second

// volumeStep is the per-keypress volume change relayed to the selection.
const volumeStep = 0.1

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	registry *devices.Registry
	arbiter  *devices.Arbiter
	relay    *devices.Relay
	width    int
	height   int

	deviceList list.Model
	devices    []models.Device
	loaded     bool
	status     string
	err        error
	help       help.Model
	keys       keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, registry *devices.Registry, arbiter *devices.Arbiter, relay *devices.Relay) *Model {
	return &Model{
		ctx:      ctx,
		registry: registry,
		arbiter:  arbiter,
		relay:    relay,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches the device list and starts the refresh timer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchDevices(), refreshTick(refreshInterval))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.loaded {
			m.deviceList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case refreshTickMsg:
		return m, tea.Batch(m.fetchDevices(), refreshTick(refreshInterval))

	case devicesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.devices = msg.devices
		m.rebuildList()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		return m, m.fetchDevices()
	}

	return m.updateList(msg)
}

// View renders the device list with the current status line and help.
func (m *Model) View() string {
	if !m.loaded {
		return styles.help.Render("Loading devices...")
	}

	var status string
	if m.err != nil {
		status = styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	} else if m.status != "" {
		status = styles.ok.Render(m.status)
	}

	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", m.deviceList.View(), status, helpView)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "q" || msg.String() == "ctrl+c":
		return m, tea.Quit

	case msg.String() == "r":
		return m, m.fetchDevices()

	case msg.String() == "a":
		return m, m.doAction("activated here", func() error {
			return m.arbiter.Activate(m.ctx)
		})

	case msg.String() == "t":
		target, ok := m.selected()
		if !ok {
			return m, nil
		}
		snapshot := m.selfSnapshot()
		return m, m.doAction(fmt.Sprintf("transferred to %s", target.Name), func() error {
			return m.arbiter.Transfer(m.ctx, target.ID, snapshot)
		})

	case msg.String() == " ":
		target, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sendCommand(target, models.Command{Type: models.CommandPlayPause, Value: !target.IsPlaying})

	case msg.String() == "n":
		target, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sendCommand(target, models.Command{Type: models.CommandSkip, Value: "next"})

	case msg.String() == "b":
		target, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.sendCommand(target, models.Command{Type: models.CommandSkip, Value: "prev"})

	case msg.String() == "+" || msg.String() == "=":
		return m.adjustVolume(volumeStep)

	case msg.String() == "-":
		return m.adjustVolume(-volumeStep)
	}

	return m.updateList(msg)
}

func (m *Model) adjustVolume(delta float64) (tea.Model, tea.Cmd) {
	target, ok := m.selected()
	if !ok {
		return m, nil
	}
	vol := target.Volume + delta
	if vol < 0 {
		vol = 0
	}
	if vol > 1 {
		vol = 1
	}
	return m, m.sendCommand(target, models.Command{Type: models.CommandVolume, Value: vol})
}

func (m *Model) sendCommand(target models.Device, cmd models.Command) tea.Cmd {
	return m.doAction(fmt.Sprintf("%s sent to %s", cmd.Type, target.Name), func() error {
		return m.relay.Send(m.ctx, target.ID, cmd)
	})
}

func (m *Model) doAction(status string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{status: status, err: fn()}
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		online, err := m.registry.ListOnline(m.ctx)
		return devicesFetchedMsg{devices: online, err: err}
	}
}

func (m *Model) selected() (models.Device, bool) {
	if !m.loaded {
		return models.Device{}, false
	}
	item, ok := m.deviceList.SelectedItem().(deviceItem)
	if !ok {
		return models.Device{}, false
	}
	return item.device, true
}

// selfSnapshot builds the handover state from this device's own row as
// currently listed. A transfer from a device with no known state hands
// over an empty snapshot, which the target treats as a fresh start.
func (m *Model) selfSnapshot() models.PlaybackSnapshot {
	for _, d := range m.devices {
		if d.ID == m.registry.DeviceID() {
			return models.PlaybackSnapshot{
				CurrentTrack: d.CurrentTrack,
				PositionMS:   d.PositionMS,
				IsPlaying:    d.IsPlaying,
				Volume:       d.Volume,
				QueueIDs:     d.QueueIDs,
			}
		}
	}
	return models.PlaybackSnapshot{}
}

func (m *Model) rebuildList() {
	items := make([]list.Item, len(m.devices))
	for i, d := range m.devices {
		items[i] = deviceItem{device: d, self: d.ID == m.registry.DeviceID()}
	}

	if !m.loaded {
		m.deviceList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.deviceList.Title = "Devices"
		m.deviceList.SetShowHelp(false)
		m.deviceList.SetSize(m.width-4, m.height-8)
		m.loaded = true
		return
	}
	m.deviceList.SetItems(items)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}
