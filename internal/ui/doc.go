// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI shows the installation's online devices and acts as a remote
// control for whichever one is authoritative:
//   - navigate the device list (vim-style j/k)
//   - activate this device or hand playback to the selected one
//   - relay play/pause, skip, and volume commands to the selection
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// The list refreshes on a timer so remote liveness changes show up without
// keypresses, and a heartbeat keeps this device visible to its peers while
// the view is open.
package ui
