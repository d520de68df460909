package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the overlay.
type keyMap struct {
	// Visibility
	Toggle key.Binding
	Hide   key.Binding
	Quit   key.Binding
	Help   key.Binding

	// Menu
	ToggleToolbar key.Binding
	ForwardKeys   key.Binding
	ToggleFollow  key.Binding
	ClearLog      key.Binding

	// Toolbar
	Filter      key.Binding
	ClearFilter key.Binding
	Export      key.Binding
	Copy        key.Binding

	// Appearance
	OpacityUp   key.Binding
	OpacityDown key.Binding
	CycleTheme  key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Filter input
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings. toggle is the key that
// shows and hides the overlay.
func DefaultKeyMap(toggle string) keyMap {
	if toggle == "" {
		toggle = "ctrl+t"
	}
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(toggle),
			key.WithHelp(toggle, "Show/hide console"),
		),
		Hide: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Hide console"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),

		ToggleToolbar: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Toggle toolbar"),
		),
		ForwardKeys: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "Forward keys to app"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle auto follow"),
		),
		ClearLog: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "Clear log"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter lines"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Clear filter"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Export log"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy rows"),
		),

		OpacityUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "More opaque"),
		),
		OpacityDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "More transparent"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Scroll left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Scroll right"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Apply filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Leave filter"),
		),
	}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Hide, k.Quit},
		{k.ToggleToolbar, k.ForwardKeys, k.ToggleFollow, k.ClearLog},
		{k.Filter, k.ClearFilter, k.Export, k.Copy},
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.PageUp, k.PageDown, k.HalfPageUp, k.HalfPageDown},
		{k.OpacityUp, k.OpacityDown, k.CycleTheme, k.Help},
	}
}
