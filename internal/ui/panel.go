package ui

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var levelPattern = regexp.MustCompile(`\b(DEBUG|INFO|WARN|ERROR)\b`)

const menuSeparator = " • "

// renderPanel draws the toolbar, the visible rows and the menu bar. Rows
// past the end of the log show the host screen underneath, dimmed.
func (o *Overlay) renderPanel(hostView string) string {
	pal := blendPalette(o.theme, o.settings, o.opacity)
	styles := o.theme.Styles()

	lines := make([]string, 0, o.height)
	if o.showToolbar {
		lines = append(lines, o.renderToolbar(pal, styles))
	}
	lines = append(lines, o.renderRows(pal, styles, hostView)...)
	lines = append(lines, o.renderMenu(pal, styles))
	return strings.Join(lines, "\n")
}

func (o *Overlay) renderToolbar(pal palette, styles Styles) string {
	bg := NewBgStyle(pal.Toolbar)

	exportLabel := bg.Render("[e] Export", styles.AccentText)
	if o.exporting {
		exportLabel += bg.Space() + o.spinner.View()
	}

	counts := bg.Render(fmt.Sprintf("□ %d", o.snapshot.Total), styles.Text) +
		bg.Space() +
		bg.Render(fmt.Sprintf("■ %d", o.snapshot.Filtered), styles.Text)

	var filter string
	switch {
	case o.filtering:
		filter = o.filterInput.View()
	case o.snapshot.FilterActive:
		filter = bg.Render("/ "+o.snapshot.FilterText, styles.WarningText)
	default:
		filter = bg.Render("/ "+o.filterInput.Placeholder, styles.FaintText)
	}

	clearLabel := bg.Render("[x]", styles.MutedText)

	return bg.FillLine(bg.Join([]string{exportLabel, counts, filter, clearLabel}, menuSeparator), o.width)
}

func (o *Overlay) renderRows(pal palette, styles Styles, hostView string) []string {
	height := o.rowsHeight()
	bg := NewBgStyle(pal.Back)
	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Text))
	seeThrough := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.SeeThrough))

	hostLines := strings.Split(ansi.Strip(hostView), "\n")
	top := 0
	if o.showToolbar {
		top = ToolbarHeight
	}

	rows := o.snapshot.Rows
	start := o.viewport.YOffset
	if start > len(rows) {
		start = len(rows)
	}
	if start < 0 {
		start = 0
	}

	out := make([]string, 0, height)
	for i := 0; i < height; i++ {
		if idx := start + i; idx < len(rows) {
			text := cut(rows[idx], o.xOffset, o.width)
			out = append(out, bg.FillLine(bg.Render(text, rowStyle(rows[idx], textStyle, styles)), o.width))
			continue
		}
		var host string
		if screenRow := top + i; screenRow < len(hostLines) {
			host = cut(hostLines[screenRow], 0, o.width)
		}
		out = append(out, bg.FillLine(bg.Render(host, seeThrough), o.width))
	}
	return out
}

func (o *Overlay) renderMenu(pal palette, styles Styles) string {
	bg := NewBgStyle(pal.Toolbar)

	toggle := func(keyName, label string, on bool) string {
		state := styles.FaintText
		if on {
			state = styles.SuccessText
		}
		return bg.Render(keyName, styles.AccentText) + bg.Space() + bg.Render(label, state)
	}

	parts := []string{
		toggle("tab", "toolbar", o.showToolbar),
		toggle("ctrl+f", "forward", o.forwardKeys),
		toggle("space", "follow", o.follow),
		bg.Render("ctrl+l", styles.AccentText) + bg.Space() + bg.Render("clear", styles.MutedText),
		bg.Render("?", styles.AccentText) + bg.Space() + bg.Render("help", styles.MutedText),
		bg.Render(fmt.Sprintf("%d%%", int(math.Round(o.opacity*100))), styles.MutedText),
	}
	if o.status != "" {
		parts = append(parts, bg.Render(o.status, styles.WarningText))
	}
	return bg.FillLine(bg.Join(parts, menuSeparator), o.width)
}

// rowStyle colors a row by the first level name it mentions.
func rowStyle(row string, base lipgloss.Style, styles Styles) lipgloss.Style {
	m := levelPattern.FindStringSubmatch(row)
	if m == nil {
		return base
	}
	if c := styles.LevelColor(m[1]); c != "" {
		return base.Foreground(lipgloss.Color(c))
	}
	return base
}
