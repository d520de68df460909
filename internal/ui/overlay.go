package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/buffer"
	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/console"
	"github.com/five82/logdeck/internal/export"
	"github.com/five82/logdeck/internal/logger"
	"github.com/five82/logdeck/internal/prefs"
)

// DrainMsg wakes the overlay to run work queued for the UI loop.
type DrainMsg struct{}

// Options configures the overlay.
type Options struct {
	Host       tea.Model
	Console    *console.Console
	Queue      *console.Queue
	Logger     *logger.Logger
	ThemeName  string
	Opacity    float64 // zero uses the console settings
	AutoFollow bool
	PrefsPath  string
	// Clipboard receives copied rows and exported paths. Defaults to the
	// system clipboard.
	Clipboard func(text string) error
}

// Overlay draws the console panel over a host model. While the console is
// hidden it is transparent: every message goes to the host.
type Overlay struct {
	host     tea.Model
	console  *console.Console
	queue    *console.Queue
	log      *logger.Logger
	keys     keyMap
	settings config.Console

	theme     Theme
	opacity   float64
	prefsPath string
	clipboard func(string) error

	width  int
	height int
	ready  bool

	snapshot buffer.Snapshot
	viewport viewport.Model
	xOffset  int

	follow      bool
	forwardKeys bool
	showToolbar bool
	showHelp    bool

	filterInput textinput.Model
	filtering   bool

	exporting bool
	spinner   spinner.Model
	status    string
}

// New creates the overlay.
func New(opts Options) *Overlay {
	var settings config.Console
	if opts.Console != nil {
		settings = opts.Console.Settings()
	}

	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = settings.Opacity
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Placeholder = "Type filter here..."
	ti.Prompt = "/ "
	ti.CharLimit = FilterCharLimit

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Overlay{
		host:        opts.Host,
		console:     opts.Console,
		queue:       opts.Queue,
		log:         opts.Logger,
		keys:        DefaultKeyMap(settings.ToggleKey),
		settings:    settings,
		theme:       GetTheme(themeName),
		opacity:     config.ClampOpacity(opacity),
		prefsPath:   opts.PrefsPath,
		clipboard:   copyText,
		viewport:    viewport.New(0, 0),
		follow:      opts.AutoFollow,
		showToolbar: true,
		filterInput: ti,
		spinner:     sp,
	}
}

// Init implements tea.Model.
func (o *Overlay) Init() tea.Cmd {
	if o.host == nil {
		return nil
	}
	return o.host.Init()
}

// Update implements tea.Model.
func (o *Overlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DrainMsg:
		o.refresh()
		return o, nil

	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height
		o.ready = true
		o.resize()
		return o, o.updateHost(msg)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if o.exporting {
			var cmd tea.Cmd
			o.spinner, cmd = o.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, o.updateHost(msg))
		return o, tea.Batch(cmds...)

	case tea.KeyMsg:
		if !o.active() {
			return o, o.updateHost(msg)
		}
		if o.console.IsHidden() {
			if o.settings.ShakeGesture && key.Matches(msg, o.keys.Toggle) {
				o.console.Show()
				o.refresh()
				return o, nil
			}
			return o, o.updateHost(msg)
		}
		return o.handleKey(msg)
	}

	var cmds []tea.Cmd
	if o.filtering {
		var cmd tea.Cmd
		o.filterInput, cmd = o.filterInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, o.updateHost(msg))
	return o, tea.Batch(cmds...)
}

// View implements tea.Model.
func (o *Overlay) View() string {
	hostView := ""
	if o.host != nil {
		hostView = o.host.View()
	}
	if !o.ready || !o.visible() {
		return hostView
	}
	if o.showHelp {
		return o.renderHelp()
	}
	return o.renderPanel(hostView)
}

// Host returns the wrapped model as last updated.
func (o *Overlay) Host() tea.Model {
	return o.host
}

func (o *Overlay) active() bool {
	return o.console != nil && o.console.Attached()
}

func (o *Overlay) visible() bool {
	return o.active() && !o.console.IsHidden()
}

func (o *Overlay) updateHost(msg tea.Msg) tea.Cmd {
	if o.host == nil {
		return nil
	}
	var cmd tea.Cmd
	o.host, cmd = o.host.Update(msg)
	return cmd
}

// handleKey processes keyboard input while the panel is visible.
func (o *Overlay) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if o.showHelp {
		// Any key closes help
		o.showHelp = false
		return o, nil
	}
	if o.filtering {
		return o.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, o.keys.Quit):
		return o, tea.Quit

	case o.settings.ShakeGesture && key.Matches(msg, o.keys.Toggle),
		key.Matches(msg, o.keys.Hide):
		o.console.Hide()
		return o, nil

	case key.Matches(msg, o.keys.Help):
		o.showHelp = true
		return o, nil

	case key.Matches(msg, o.keys.ToggleToolbar):
		o.showToolbar = !o.showToolbar
		o.resize()
		return o, nil

	case key.Matches(msg, o.keys.ForwardKeys):
		o.forwardKeys = !o.forwardKeys
		o.notice(fmt.Sprintf("Forward Touches [%t]", o.forwardKeys))

	case key.Matches(msg, o.keys.ToggleFollow):
		o.follow = !o.follow
		o.notice(fmt.Sprintf("Auto Follow [%t]", o.follow))
		o.savePrefs()

	case key.Matches(msg, o.keys.ClearLog):
		o.console.ClearLog()
		o.xOffset = 0
		o.viewport.GotoTop()

	case key.Matches(msg, o.keys.Filter):
		o.filtering = true
		if !o.showToolbar {
			o.showToolbar = true
			o.resize()
		}
		o.filterInput.SetValue(o.snapshot.FilterText)
		o.filterInput.CursorEnd()
		return o, o.filterInput.Focus()

	case key.Matches(msg, o.keys.ClearFilter):
		o.console.ClearFilter()
		o.filterInput.SetValue("")

	case key.Matches(msg, o.keys.Export):
		return o, o.startExport()

	case key.Matches(msg, o.keys.Copy):
		o.copyRows()
		return o, nil

	case key.Matches(msg, o.keys.OpacityUp):
		o.setOpacity(o.opacity + OpacityStep)
		return o, nil

	case key.Matches(msg, o.keys.OpacityDown):
		o.setOpacity(o.opacity - OpacityStep)
		return o, nil

	case key.Matches(msg, o.keys.CycleTheme):
		o.theme = GetTheme(NextTheme(o.theme.Name))
		o.savePrefs()
		return o, nil

	case key.Matches(msg, o.keys.Up):
		o.viewport.ScrollUp(1)
		o.follow = false
		return o, nil

	case key.Matches(msg, o.keys.Down):
		o.viewport.ScrollDown(1)
		return o, nil

	case key.Matches(msg, o.keys.Left):
		o.scrollHorizontal(-HorizontalStep)
		return o, nil

	case key.Matches(msg, o.keys.Right):
		o.scrollHorizontal(HorizontalStep)
		return o, nil

	case key.Matches(msg, o.keys.Top):
		o.viewport.GotoTop()
		o.follow = false
		return o, nil

	case key.Matches(msg, o.keys.Bottom):
		o.viewport.GotoBottom()
		return o, nil

	case key.Matches(msg, o.keys.PageUp):
		o.viewport.PageUp()
		o.follow = false
		return o, nil

	case key.Matches(msg, o.keys.PageDown):
		o.viewport.PageDown()
		return o, nil

	case key.Matches(msg, o.keys.HalfPageUp):
		o.viewport.HalfPageUp()
		o.follow = false
		return o, nil

	case key.Matches(msg, o.keys.HalfPageDown):
		o.viewport.HalfPageDown()
		return o, nil

	default:
		if o.forwardKeys {
			return o, o.updateHost(msg)
		}
		return o, nil
	}

	o.refresh()
	return o, nil
}

// handleFilterKey handles keyboard input while the filter field has focus.
func (o *Overlay) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, o.keys.Confirm):
		text := o.filterInput.Value()
		if strings.TrimSpace(text) != "" {
			o.console.SetFilter(text)
		} else if o.snapshot.FilterActive {
			o.console.ClearFilter()
		}
		o.filtering = false
		o.filterInput.Blur()
		o.refresh()
		return o, nil

	case key.Matches(msg, o.keys.Cancel):
		o.filtering = false
		o.filterInput.Blur()
		return o, nil
	}

	var cmd tea.Cmd
	o.filterInput, cmd = o.filterInput.Update(msg)
	return o, cmd
}

func (o *Overlay) startExport() tea.Cmd {
	if o.exporting {
		return nil
	}
	o.exporting = true
	o.status = "Exporting..."
	o.console.ExportLogFile(o.exportDone)
	return o.spinner.Tick
}

// exportDone runs on the UI loop once the console has written the file.
func (o *Overlay) exportDone(path string, err error) {
	o.exporting = false
	switch {
	case errors.Is(err, export.ErrEmptyLog):
		o.status = "Log is empty"
	case err != nil:
		o.status = "Export failed: " + err.Error()
	default:
		o.status = "Exported " + path
		if cerr := o.clipboard(path); cerr != nil {
			o.notice(fmt.Sprintf("Copy export path failed: %v", cerr))
		} else {
			o.status += " (path copied)"
		}
		o.console.Hide()
	}
}

func (o *Overlay) copyRows() {
	rows := o.snapshot.Rows
	if len(rows) == 0 {
		o.status = "Nothing to copy"
		return
	}
	if err := o.clipboard(strings.Join(rows, "\n")); err != nil {
		o.status = "Copy failed: " + err.Error()
		return
	}
	o.status = fmt.Sprintf("Copied %d rows", len(rows))
}

func (o *Overlay) setOpacity(v float64) {
	o.opacity = config.ClampOpacity(math.Round(v*100) / 100)
	o.savePrefs()
}

// savePrefs persists the adjustable state. An empty path saves to the
// default prefs location.
func (o *Overlay) savePrefs() {
	p := prefs.Prefs{Theme: o.theme.Name, Opacity: o.opacity, AutoFollow: o.follow}
	if err := prefs.Save(o.prefsPath, p); err != nil {
		o.notice(fmt.Sprintf("Save preferences failed: %v", err))
	}
}

func (o *Overlay) notice(message string) {
	if o.log == nil {
		return
	}
	o.log.Log(context.Background(), logger.Caller(1), message)
}

func (o *Overlay) rowsHeight() int {
	h := o.height - MenuHeight
	if o.showToolbar {
		h -= ToolbarHeight
	}
	if h < 0 {
		return 0
	}
	return h
}

func (o *Overlay) resize() {
	o.viewport.Width = o.width
	o.viewport.Height = o.rowsHeight()
	o.refresh()
}

// refresh runs queued console work, then pulls a fresh snapshot from the
// buffer. It must only be called on the UI loop.
func (o *Overlay) refresh() {
	if o.queue != nil {
		o.queue.Drain()
	}
	if o.console == nil {
		return
	}
	o.snapshot = o.console.Buffer().Snapshot()
	o.viewport.SetContent(strings.Join(o.snapshot.Rows, "\n"))
	o.scrollHorizontal(0)
	if o.follow {
		o.viewport.GotoBottom()
	}
}

// scrollHorizontal moves the window by delta cells, keeping the widest line
// reachable but never scrolling past it.
func (o *Overlay) scrollHorizontal(delta int) {
	maxOffset := o.snapshot.ContentWidth - o.width
	if maxOffset < 0 {
		maxOffset = 0
	}
	o.xOffset += delta
	if o.xOffset > maxOffset {
		o.xOffset = maxOffset
	}
	if o.xOffset < 0 {
		o.xOffset = 0
	}
}
