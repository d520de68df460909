package logline

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLayout renders timestamps with millisecond precision.
const DefaultLayout = "2006-01-02 15:04:05.000"

const (
	mainThread  = "Main"
	unknownFile = "Unknown"
)

// CallSite identifies where a log call was made.
type CallSite struct {
	File     string
	Line     int
	Function string
}

// Identified is implemented by lines that carry a stable identity.
type Identified interface {
	LineID() uuid.UUID
}

// Line is one immutable log record.
type Line struct {
	ID       uuid.UUID
	Time     time.Time
	Thread   string
	File     string
	Line     int
	Function string
	Message  string
}

// New builds a line for the given call site. File paths are reduced to their
// base name without extension.
func New(site CallSite, thread, message string, now time.Time) Line {
	thread = strings.TrimSpace(thread)
	if thread == "" {
		thread = mainThread
	}
	return Line{
		ID:       uuid.New(),
		Time:     now,
		Thread:   thread,
		File:     FileName(site.File),
		Line:     site.Line,
		Function: site.Function,
		Message:  message,
	}
}

// FileName strips directories and the extension from path.
func FileName(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return unknownFile
	}
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" || name == "." || name == "/" {
		return unknownFile
	}
	return name
}

// LineID implements Identified.
func (l Line) LineID() uuid.UUID {
	return l.ID
}

// Format renders the line description using layout for the timestamp.
func (l Line) Format(layout string) string {
	if strings.TrimSpace(layout) == "" {
		layout = DefaultLayout
	}
	desc := fmt.Sprintf("%s -- [%s] %s (%d) -> %s", l.Time.Format(layout), l.Thread, l.File, l.Line, l.Function)
	if l.Message != "" {
		desc += ` | "` + l.Message + `"`
	}
	return desc
}

// String implements fmt.Stringer.
func (l Line) String() string {
	return l.Format(DefaultLayout)
}

// Formatted pairs a line with the timestamp layout it should render with.
type Formatted struct {
	Line
	Layout string
}

// String implements fmt.Stringer.
func (f Formatted) String() string {
	return f.Line.Format(f.Layout)
}

// Raw is free text appended without a call site, e.g. lines read from a file.
type Raw struct {
	ID   uuid.UUID
	Text string
}

// NewRaw wraps text with a fresh identity.
func NewRaw(text string) Raw {
	return Raw{ID: uuid.New(), Text: text}
}

// LineID implements Identified.
func (r Raw) LineID() uuid.UUID {
	return r.ID
}

// String implements fmt.Stringer.
func (r Raw) String() string {
	return r.Text
}
