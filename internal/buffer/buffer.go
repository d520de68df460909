package buffer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"

	"github.com/five82/logdeck/internal/logline"
)

// Option configures a Buffer.
type Option func(*Buffer)

// WithMeasure overrides how rendered line width is computed.
func WithMeasure(measure func(string) int) Option {
	return func(b *Buffer) {
		if measure != nil {
			b.measure = measure
		}
	}
}

type entry struct {
	line   fmt.Stringer
	text   string
	folded string
}

// Snapshot is a point-in-time copy of the buffer's active view.
type Snapshot struct {
	Rows         []string
	Total        int
	Filtered     int
	FilterActive bool
	FilterText   string
	ContentWidth int
}

// Buffer is the ordered log plus its filtered view. It is safe for
// concurrent use.
type Buffer struct {
	mu sync.RWMutex

	all      []entry
	filtered []int
	seen     map[uuid.UUID]struct{}

	filterText   string
	filterFolded string
	filterActive bool

	contentWidth int
	measure      func(string) int
	fold         cases.Caser
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		seen:    make(map[uuid.UUID]struct{}),
		measure: runewidth.StringWidth,
		fold:    cases.Fold(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append adds line to the end of the log. It returns false when a line with
// the same identity was already appended since the last Clear.
func (b *Buffer) Append(line fmt.Stringer) bool {
	if line == nil {
		return false
	}
	text := line.String()

	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := line.(logline.Identified); ok {
		key := id.LineID()
		if key != uuid.Nil {
			if _, dup := b.seen[key]; dup {
				return false
			}
			b.seen[key] = struct{}{}
		}
	}

	e := entry{line: line, text: text, folded: b.fold.String(text)}
	if w := b.measure(text); w > b.contentWidth {
		b.contentWidth = w
	}
	b.all = append(b.all, e)
	if b.filterActive && strings.Contains(e.folded, b.filterFolded) {
		b.filtered = append(b.filtered, len(b.all)-1)
	}
	return true
}

// SetFilter applies a case-insensitive substring filter. Blank text clears
// the filter. It reports whether a filter is active afterwards.
func (b *Buffer) SetFilter(text string) bool {
	if strings.TrimSpace(text) == "" {
		b.ClearFilter()
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.filterText = text
	b.filterFolded = b.fold.String(text)
	b.filterActive = true
	b.rebuildFiltered()
	return true
}

// ClearFilter drops the filter; the full log becomes the active view again.
func (b *Buffer) ClearFilter() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.filterText = ""
	b.filterFolded = ""
	b.filterActive = false
	b.filtered = nil
}

// Clear empties the log and the filtered view. The filter itself stays.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = nil
	b.filtered = nil
	b.seen = make(map[uuid.UUID]struct{})
	b.contentWidth = 0
}

func (b *Buffer) rebuildFiltered() {
	filtered := make([]int, 0, len(b.filtered))
	for i, e := range b.all {
		if strings.Contains(e.folded, b.filterFolded) {
			filtered = append(filtered, i)
		}
	}
	b.filtered = filtered
}

// Len returns the number of lines in the log.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.all)
}

// FilteredLen returns the size of the filtered view, or zero when no filter
// is active.
func (b *Buffer) FilteredLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.filterActive {
		return 0
	}
	return len(b.filtered)
}

// FilterActive reports whether a filter is applied.
func (b *Buffer) FilterActive() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filterActive
}

// FilterText returns the active filter text.
func (b *Buffer) FilterText() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filterText
}

// ContentWidth returns the widest rendered line since the last Clear.
func (b *Buffer) ContentWidth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contentWidth
}

// Descriptions returns every line's text in insertion order, ignoring the
// filter.
func (b *Buffer) Descriptions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.all))
	for i, e := range b.all {
		out[i] = e.text
	}
	return out
}

// Rows returns the active view: the filtered lines when a filter is active,
// otherwise the whole log.
func (b *Buffer) Rows() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rowsLocked()
}

func (b *Buffer) rowsLocked() []string {
	if !b.filterActive {
		out := make([]string, len(b.all))
		for i, e := range b.all {
			out[i] = e.text
		}
		return out
	}
	out := make([]string, len(b.filtered))
	for i, idx := range b.filtered {
		out[i] = b.all[idx].text
	}
	return out
}

// Snapshot returns a copy of the active view and its counters.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Rows:         b.rowsLocked(),
		Total:        len(b.all),
		FilterActive: b.filterActive,
		FilterText:   b.filterText,
		ContentWidth: b.contentWidth,
	}
	if b.filterActive {
		snap.Filtered = len(b.filtered)
	}
	return snap
}
