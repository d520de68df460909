package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/five82/logdeck/internal/buffer"
	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/export"
	"github.com/five82/logdeck/internal/logger"
	"github.com/five82/logdeck/internal/logline"
)

// EventKind identifies what changed in the console.
type EventKind int

const (
	LinesChanged EventKind = iota + 1
	FilterChanged
	Cleared
	VisibilityChanged
	Exported
)

func (k EventKind) String() string {
	switch k {
	case LinesChanged:
		return "lines"
	case FilterChanged:
		return "filter"
	case Cleared:
		return "cleared"
	case VisibilityChanged:
		return "visibility"
	case Exported:
		return "exported"
	default:
		return "unknown"
	}
}

// Event describes a console change. Path and Err are set for Exported.
type Event struct {
	Kind EventKind
	Path string
	Err  error
}

// Option configures a Console.
type Option func(*Console)

// WithExporter replaces the exporter built from settings.
func WithExporter(e export.Exporter) Option {
	return func(c *Console) {
		c.exporter = e
	}
}

// WithBuffer shares an existing buffer with the console.
func WithBuffer(b *buffer.Buffer) Option {
	return func(c *Console) {
		if b != nil {
			c.buf = b
		}
	}
}

// Console owns the log buffer and the overlay's visibility. It does nothing
// until a Dispatcher is attached with Configure or Launch.
type Console struct {
	settings config.Console
	log      *logger.Logger
	buf      *buffer.Buffer
	exporter export.Exporter

	mu          sync.Mutex
	dispatcher  Dispatcher
	unsubscribe func()
	hidden      bool
	listeners   []*listener

	exports sync.WaitGroup
}

type listener struct {
	fn func(Event)
}

// New creates a console. log may be nil, in which case notices are dropped
// and no lines are captured automatically.
func New(settings config.Console, log *logger.Logger, opts ...Option) *Console {
	c := &Console{
		settings: settings,
		log:      log,
		buf:      buffer.New(),
		exporter: export.Exporter{
			Dir:      settings.ExportDir,
			Compress: settings.ExportCompress,
		},
		hidden: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the settings the console was built with.
func (c *Console) Settings() config.Console {
	return c.settings
}

// Buffer returns the console's log buffer.
func (c *Console) Buffer() *buffer.Buffer {
	return c.buf
}

// Configure attaches d and starts capturing logger output. It reports false
// when the console is disabled or d is nil. Calling it again only swaps the
// dispatcher.
func (c *Console) Configure(d Dispatcher) bool {
	if !c.settings.Enabled || d == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatcher = d
	if c.unsubscribe == nil && c.log != nil {
		c.unsubscribe = c.log.Subscribe(c)
	}
	return true
}

// Launch configures the console and shows it when autostart is set.
func (c *Console) Launch(d Dispatcher) bool {
	if !c.Configure(d) {
		return false
	}
	if c.settings.AutoStart {
		c.Show()
	}
	return true
}

// Close stops capturing logger output and waits for running exports.
func (c *Console) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.exports.Wait()
}

// Wait blocks until every export started so far has completed.
func (c *Console) Wait() {
	c.exports.Wait()
}

// Attached reports whether a dispatcher has been attached.
func (c *Console) Attached() bool {
	return c.currentDispatcher() != nil
}

// IsHidden reports whether the overlay is hidden.
func (c *Console) IsHidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden
}

// Toggle flips visibility.
func (c *Console) Toggle() {
	c.mu.Lock()
	hidden := c.hidden
	c.mu.Unlock()
	c.setHidden(!hidden)
}

// Show makes the overlay visible.
func (c *Console) Show() { c.setHidden(false) }

// Hide hides the overlay.
func (c *Console) Hide() { c.setHidden(true) }

func (c *Console) setHidden(hidden bool) {
	c.mu.Lock()
	d := c.dispatcher
	if d == nil || c.hidden == hidden {
		c.mu.Unlock()
		return
	}
	c.hidden = hidden
	c.mu.Unlock()

	d.Dispatch(func() { c.emit(Event{Kind: VisibilityChanged}) })
}

// AddLogLine appends line on the dispatcher's loop. It is safe to call from
// any goroutine and never blocks on the UI.
func (c *Console) AddLogLine(line fmt.Stringer) {
	d := c.currentDispatcher()
	if d == nil || line == nil {
		return
	}
	d.Dispatch(func() {
		if c.buf.Append(line) {
			c.emit(Event{Kind: LinesChanged})
		}
	})
}

// DidLog implements logger.Observer.
func (c *Console) DidLog(line logline.Line) {
	layout := logline.DefaultLayout
	if c.log != nil {
		layout = c.log.DateFormat()
	}
	c.AddLogLine(logline.Formatted{Line: line, Layout: layout})
}

// SetFilter applies text as the row filter on the dispatcher's loop, in
// order with pending appends. Blank text clears it. It reports whether the
// filter will be active.
func (c *Console) SetFilter(text string) bool {
	d := c.currentDispatcher()
	if d == nil {
		return false
	}
	d.Dispatch(func() {
		active := c.buf.SetFilter(text)
		c.notice(context.Background(), fmt.Sprintf("Filter Lines [%t] - %s", active, c.buf.FilterText()))
		c.emit(Event{Kind: FilterChanged})
	})
	return strings.TrimSpace(text) != ""
}

// ClearFilter removes the row filter.
func (c *Console) ClearFilter() {
	d := c.currentDispatcher()
	if d == nil {
		return
	}
	d.Dispatch(func() {
		c.buf.ClearFilter()
		c.notice(context.Background(), "Filter Lines [false] - ")
		c.emit(Event{Kind: FilterChanged})
	})
}

// ClearLog empties the buffer. Lines dispatched before the call are cleared
// too.
func (c *Console) ClearLog() {
	d := c.currentDispatcher()
	if d == nil {
		return
	}
	d.Dispatch(func() {
		c.buf.Clear()
		c.emit(Event{Kind: Cleared})
	})
}

// ExportLogFile writes the current log in the background. completion runs on
// the dispatcher's loop with the written path, or with the error that
// prevented the export. An empty log reports export.ErrEmptyLog.
func (c *Console) ExportLogFile(completion func(path string, err error)) {
	d := c.currentDispatcher()
	if d == nil {
		return
	}
	descriptions := c.buf.Descriptions()

	c.exports.Add(1)
	go func() {
		defer c.exports.Done()

		ctx := logger.WithThread(context.Background(), "Export")
		path, err := c.exporter.Export(descriptions)
		switch {
		case errors.Is(err, export.ErrEmptyLog):
			c.notice(ctx, "Log is empty, nothing to export here.")
		case err != nil:
			c.notice(ctx, err)
		default:
			c.notice(ctx, "Log is exported to path: "+path)
		}

		d.Dispatch(func() {
			c.emit(Event{Kind: Exported, Path: path, Err: err})
			if completion != nil {
				completion(path, err)
			}
		})
	}()
}

// OnChange registers fn for console events and returns a function that
// removes it. Listeners run on the dispatcher's loop in registration order.
func (c *Console) OnChange(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	l := &listener{fn: fn}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, existing := range c.listeners {
				if existing == l {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Console) emit(ev Event) {
	c.mu.Lock()
	listeners := make([]*listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l.fn(ev)
	}
}

func (c *Console) currentDispatcher() Dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatcher
}

func (c *Console) notice(ctx context.Context, message any) {
	if c.log == nil {
		return
	}
	c.log.Log(ctx, logger.Caller(1), message)
}
