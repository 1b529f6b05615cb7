package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
)

var _ list.Item = deviceItem{}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
	self   bool
}

func (i deviceItem) FilterValue() string { return i.device.Name }

func (i deviceItem) Title() string {
	title := i.device.Name
	if i.self {
		title = fmt.Sprintf("%s (this device)", title)
	}
	if i.device.IsActive {
		title = fmt.Sprintf("● %s", title)
	}
	return title
}

func (i deviceItem) Description() string {
	desc := fmt.Sprintf("%s • seen %s ago", i.device.Type, time.Since(i.device.LastSeen).Round(time.Second))
	if i.device.CurrentTrack != nil {
		state := "paused"
		if i.device.IsPlaying {
			state = "playing"
		}
		desc = fmt.Sprintf("%s • %s %s @ %s", desc, state, i.device.CurrentTrack.Title, shared.FormatPosition(i.device.PositionMS))
	}
	return desc
}
