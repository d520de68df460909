package buffer

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/logdeck/internal/logline"
)

type text string

func (t text) String() string { return string(t) }

func appendAll(b *Buffer, lines ...string) {
	for _, l := range lines {
		b.Append(logline.NewRaw(l))
	}
}

func TestAppend_PreservesInsertionOrder(t *testing.T) {
	b := New()
	var want []string
	for i := 0; i < 100; i++ {
		line := fmt.Sprintf("line %03d", i)
		want = append(want, line)
		require.True(t, b.Append(logline.NewRaw(line)))
	}

	assert.Equal(t, 100, b.Len())
	assert.Equal(t, want, b.Descriptions())
	assert.Equal(t, want, b.Rows())
	assert.Len(t, b.Descriptions(), 100)
}

func TestAppend_IdempotentForSameLine(t *testing.T) {
	b := New()
	line := logline.NewRaw("only once")

	assert.True(t, b.Append(line))
	assert.False(t, b.Append(line))
	assert.Equal(t, 1, b.Len())

	// Lines without an identity are always appended.
	assert.True(t, b.Append(text("plain")))
	assert.True(t, b.Append(text("plain")))
	assert.Equal(t, 3, b.Len())

	assert.False(t, b.Append(nil))
}

func TestClear_ForgetsIdentities(t *testing.T) {
	b := New()
	line := logline.NewRaw("again")
	b.Append(line)
	b.Clear()

	assert.True(t, b.Append(line))
	assert.Equal(t, 1, b.Len())
}

func TestSetFilter_CaseInsensitiveSubsequence(t *testing.T) {
	b := New()
	appendAll(b, "Alpha start", "beta", "ALPHA end", "gamma alpha", "delta")

	active := b.SetFilter("alpha")

	assert.True(t, active)
	assert.True(t, b.FilterActive())
	assert.Equal(t, "alpha", b.FilterText())
	assert.Equal(t, []string{"Alpha start", "ALPHA end", "gamma alpha"}, b.Rows())
	assert.Equal(t, 3, b.FilteredLen())
	assert.Equal(t, 5, b.Len())
}

func TestSetFilter_UnicodeFolding(t *testing.T) {
	b := New()
	appendAll(b, "Straße gesperrt", "STRASSE frei", "Ärger", "ärger klein")

	b.SetFilter("strasse")
	assert.Equal(t, []string{"Straße gesperrt", "STRASSE frei"}, b.Rows())

	b.SetFilter("ÄRGER")
	assert.Equal(t, []string{"Ärger", "ärger klein"}, b.Rows())
}

func TestAppend_WhileFilterActiveUsesSameMatching(t *testing.T) {
	b := New()
	appendAll(b, "ERROR one")
	b.SetFilter("error")

	appendAll(b, "info two", "Error three", "error four")

	assert.Equal(t, []string{"ERROR one", "Error three", "error four"}, b.Rows())
	assert.Equal(t, 4, b.Len())
}

func TestSetFilter_BlankClears(t *testing.T) {
	b := New()
	appendAll(b, "a", "b")
	b.SetFilter("a")

	active := b.SetFilter("  \n\t")

	assert.False(t, active)
	assert.False(t, b.FilterActive())
	assert.Equal(t, []string{"a", "b"}, b.Rows())
	assert.Equal(t, 0, b.FilteredLen())
}

func TestClearFilter_RestoresFullViewWithoutMutation(t *testing.T) {
	b := New()
	appendAll(b, "one", "two", "three")
	before := b.Descriptions()

	b.SetFilter("t")
	require.Equal(t, []string{"two", "three"}, b.Rows())
	b.ClearFilter()

	assert.Equal(t, before, b.Rows())
	assert.Equal(t, before, b.Descriptions())
	assert.Empty(t, b.FilterText())
}

func TestClear_EmptiesBufferAndFilteredView(t *testing.T) {
	b := New()
	appendAll(b, "x1", "x2", "y")
	b.SetFilter("x")

	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.FilteredLen())
	assert.Empty(t, b.Rows())
	assert.Equal(t, 0, b.ContentWidth())
	assert.True(t, b.FilterActive(), "filter text survives a clear")

	appendAll(b, "x3", "z")
	assert.Equal(t, []string{"x3"}, b.Rows())
}

func TestContentWidth_TracksWidestLine(t *testing.T) {
	b := New()
	appendAll(b, "abc", "abcdefgh", "ab")
	assert.Equal(t, 8, b.ContentWidth())

	// Wide runes count as two cells.
	appendAll(b, "日本語日本語")
	assert.Equal(t, 12, b.ContentWidth())

	// Filtering does not shrink the extent.
	b.SetFilter("ab")
	assert.Equal(t, 12, b.ContentWidth())
}

func TestWithMeasure(t *testing.T) {
	b := New(WithMeasure(utf8.RuneCountInString))
	appendAll(b, "日本語")
	assert.Equal(t, 3, b.ContentWidth())
}

func TestSnapshot(t *testing.T) {
	b := New()
	appendAll(b, "keep me", "drop", "KEEP too")
	b.SetFilter("keep")

	snap := b.Snapshot()
	assert.Equal(t, []string{"keep me", "KEEP too"}, snap.Rows)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 2, snap.Filtered)
	assert.True(t, snap.FilterActive)
	assert.Equal(t, "keep", snap.FilterText)
	assert.Equal(t, 8, snap.ContentWidth)

	snap.Rows[0] = "mutated"
	assert.Equal(t, "keep me", b.Rows()[0])
}

func TestConcurrentAppendAndFilterToggle(t *testing.T) {
	b := New()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				tag := "even"
				if i%2 == 1 {
					tag = "odd"
				}
				b.Append(logline.NewRaw(fmt.Sprintf("w%d %s %d", w, tag, i)))
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.SetFilter("ODD")
			_ = b.Snapshot()
			b.ClearFilter()
		}
	}()
	wg.Wait()

	b.SetFilter("odd")
	rows := b.Rows()
	assert.Equal(t, 1000, b.Len())
	assert.Len(t, rows, 500)
	for _, r := range rows {
		assert.True(t, strings.Contains(r, "odd"), "row %q", r)
	}
}
