package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logdeck/internal/logger"
)

// BeatMsg reports a heartbeat to the host.
type BeatMsg struct {
	N  int
	At time.Time
}

// Host is the demo application the console sits on. It logs every key it
// receives so there is always something to look at.
type Host struct {
	log        *logger.Logger
	toggleKey  string
	followPath string

	width   int
	height  int
	beats   int
	lastAt  time.Time
	lastKey string
}

// NewHost creates the demo host.
func NewHost(log *logger.Logger, toggleKey, followPath string) *Host {
	if toggleKey == "" {
		toggleKey = "ctrl+t"
	}
	return &Host{log: log, toggleKey: toggleKey, followPath: followPath}
}

// Init implements tea.Model.
func (h *Host) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (h *Host) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
	case BeatMsg:
		h.beats = msg.N
		h.lastAt = msg.At
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return h, tea.Quit
		}
		h.lastKey = msg.String()
		if h.log != nil {
			h.log.Logf(logger.WithThread(context.Background(), "Host"), logger.Here(), "key pressed: %s", h.lastKey)
		}
	}
	return h, nil
}

// View implements tea.Model.
func (h *Host) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#719cd6"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#738091"))

	var b strings.Builder
	b.WriteString(title.Render("logdeck demo"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Press %s to open the console, q to quit.\n", h.toggleKey))

	last := "never"
	if !h.lastAt.IsZero() {
		last = h.lastAt.Format("15:04:05")
	}
	b.WriteString(fmt.Sprintf("Heartbeats: %d (last %s)\n", h.beats, last))

	if h.followPath != "" {
		b.WriteString(fmt.Sprintf("Following: %s\n", h.followPath))
	}
	if h.lastKey != "" {
		b.WriteString(fmt.Sprintf("Last key: %s\n", h.lastKey))
	}
	b.WriteString("\n")
	b.WriteString(muted.Render("Every key you press here is logged to the console."))
	return b.String()
}
