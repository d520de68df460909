// Package ui draws the logdeck console as a bubbletea model layered over a
// host model.
//
// # Layering
//
// Overlay wraps any tea.Model. While the console is hidden, or was never
// attached to a dispatcher, the overlay forwards every message to the host
// and returns the host's view unchanged. The configured toggle key (ctrl+t
// by default) brings the panel up.
//
// When visible the panel covers the full screen:
//
//   - Toolbar: export action, total and filtered row counts, the filter
//     field and a clear-filter button. Tab hides it.
//   - Rows: the filtered log, one line per row, scrolled horizontally as a
//     whole so long lines can be read. Rows past the end of the log show
//     the host screen underneath, dimmed by the current opacity.
//   - Menu: toolbar, forward and follow toggles, clear and help, plus a
//     status message after exports and copies.
//
// # Event Flow
//
//  1. The console dispatches work into a console.Queue from any goroutine.
//  2. The queue's notify hook sends DrainMsg to the program.
//  3. On DrainMsg the overlay drains the queue on the UI loop and takes a
//     new buffer snapshot.
//  4. View renders from that snapshot only.
//
// # Appearance
//
// Colors come from the theme (Nightfox, Kanagawa or Slate) blended with the
// configured back and text colors at the current opacity. Opacity, theme
// and auto follow persist to the prefs file whenever they change.
package ui
