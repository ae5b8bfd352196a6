// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control holds channels the playback side reads for user input
type Control struct {
	Volume chan int
	Quit   chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Volume: make(chan int, 10),
		Quit:   make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume:  100,
		state:   "idle",
		control: ctrl,
	}
}

// Run starts the TUI
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
