// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Stream
	file       string
	quality    string
	mode       string
	tracks     int
	posTracks  int
	sampleRate int
	duration   float64

	// Playback
	position float64
	state    string
	volume   int
	muted    bool

	// Stats
	chunksRead int64
	underruns  int64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	control *Control
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderProgress()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the current file and its format
func (m Model) renderHeader() string {
	file := "(none)"
	if m.file != "" {
		file = truncate(m.file, 44)
	}

	format := "-"
	if m.quality != "" {
		format = fmt.Sprintf("%s %s, %d tracks (%d position) @ %dHz",
			m.quality, m.mode, m.tracks, m.posTracks, m.sampleRate)
	}

	return fmt.Sprintf(`┌─ LAF Player ─────────────────────────────────────────┐
│ File:   %-44s │
│ Format: %-44s │
├──────────────────────────────────────────────────────┤
`, file, truncate(format, 44))
}

// renderProgress renders the playback position
func (m Model) renderProgress() string {
	bar := renderBar(int(m.position), int(m.duration), 24)
	return fmt.Sprintf("│ [%s] %s / %s %-8s │\n",
		bar, formatTime(m.position), formatTime(m.duration), truncate(m.state, 8))
}

// renderControls renders the volume bar
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│ Volume: [%s] %3d%%%-26s │\n", volumeBar, m.volume, muteIcon)
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Chunks: %-10d Underruns: %-10d          │
`, m.chunksRead, m.underruns)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Position: %-12.3fs                            │
│   State:    %-12s                             │
`, m.position, m.state)
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			select {
			case m.control.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.pushVolume()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.pushVolume()
	case "m":
		m.muted = !m.muted
		m.pushVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// pushVolume sends the effective volume to the playback side without
// blocking the update loop.
func (m Model) pushVolume() {
	if m.control == nil {
		return
	}
	v := m.volume
	if m.muted {
		v = 0
	}
	select {
	case m.control.Volume <- v:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.File != "" {
		m.file = msg.File
		m.quality = msg.Quality
		m.mode = msg.Mode
		m.tracks = msg.Tracks
		m.posTracks = msg.PositionTracks
		m.sampleRate = msg.SampleRate
		m.duration = msg.Duration
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Position != nil {
		m.position = *msg.Position
		m.chunksRead = msg.ChunksRead
		m.underruns = msg.Underruns
	}
	if msg.Volume != 0 {
		m.volume = msg.Volume
	}
}

// StatusMsg updates TUI state. File, State and Volume apply only when
// non-zero; Position is a pointer so that second zero is a valid
// update carrying the stats alongside it.
type StatusMsg struct {
	File           string
	Quality        string
	Mode           string
	Tracks         int
	PositionTracks int
	SampleRate     int
	Duration       float64
	State          string
	Position       *float64
	ChunksRead     int64
	Underruns      int64
	Volume         int
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
