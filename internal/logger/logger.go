package logger

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"

	"github.com/five82/logdeck/internal/logline"
)

// Settings control which calls produce lines.
type Settings struct {
	Enabled    bool
	DateFormat string
	// Files maps a file name without extension to its enabled flag. Files not
	// listed are enabled.
	Files map[string]bool
}

// DefaultSettings enables logging for every file.
func DefaultSettings() Settings {
	return Settings{Enabled: true, DateFormat: logline.DefaultLayout}
}

// Observer receives every line the logger emits.
type Observer interface {
	DidLog(line logline.Line)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(line logline.Line)

// DidLog implements Observer.
func (f ObserverFunc) DidLog(line logline.Line) { f(line) }

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sets where descriptions are printed. The default discards them.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		if w != nil {
			l.out = w
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// Logger timestamps and tags call sites, prints them and forwards them to
// observers.
type Logger struct {
	mu        sync.RWMutex
	settings  Settings
	outMu     sync.Mutex // serializes writes to out
	out       io.Writer
	now       func() time.Time
	observers []*subscription
}

type subscription struct {
	observer Observer
}

// New creates a logger.
func New(settings Settings, opts ...Option) *Logger {
	if strings.TrimSpace(settings.DateFormat) == "" {
		settings.DateFormat = logline.DefaultLayout
	}
	files := make(map[string]bool, len(settings.Files))
	for name, enabled := range settings.Files {
		files[name] = enabled
	}
	settings.Files = files

	l := &Logger{
		settings: settings,
		out:      io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether logging is on.
func (l *Logger) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings.Enabled
}

// DateFormat returns the configured timestamp layout.
func (l *Logger) DateFormat() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings.DateFormat
}

// SetFileEnabled toggles logging for a single source file.
func (l *Logger) SetFileEnabled(name string, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.Files[logline.FileName(name)] = enabled
}

// Subscribe registers an observer and returns a function that removes it.
func (l *Logger) Subscribe(o Observer) (unsubscribe func()) {
	if o == nil {
		return func() {}
	}
	sub := &subscription{observer: o}
	l.mu.Lock()
	l.observers = append(l.observers, sub)
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, s := range l.observers {
				if s == sub {
					l.observers = append(l.observers[:i:i], l.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Log records message at site. The thread label comes from ctx. Nothing is
// emitted when logging or the site's file is disabled.
func (l *Logger) Log(ctx context.Context, site logline.CallSite, message any) {
	l.mu.RLock()
	if !l.settings.Enabled {
		l.mu.RUnlock()
		return
	}
	file := logline.FileName(site.File)
	if enabled, ok := l.settings.Files[file]; ok && !enabled {
		l.mu.RUnlock()
		return
	}
	layout := l.settings.DateFormat
	out := l.out
	now := l.now
	observers := make([]Observer, len(l.observers))
	for i, s := range l.observers {
		observers[i] = s.observer
	}
	l.mu.RUnlock()

	line := logline.New(site, Thread(ctx), messageText(message), now())
	l.outMu.Lock()
	fmt.Fprintln(out, line.Format(layout))
	l.outMu.Unlock()
	for _, o := range observers {
		o.DidLog(line)
	}
}

// Logf formats a message and logs it at site.
func (l *Logger) Logf(ctx context.Context, site logline.CallSite, format string, args ...any) {
	l.Log(ctx, site, fmt.Sprintf(format, args...))
}

// Here captures the call site of its caller.
func Here() logline.CallSite {
	return siteOf(stack.Caller(1))
}

// Caller captures the call site skip frames above the caller of Caller.
func Caller(skip int) logline.CallSite {
	return siteOf(stack.Caller(skip + 1))
}

func siteOf(c stack.Call) logline.CallSite {
	frame := c.Frame()
	return logline.CallSite{
		File:     frame.File,
		Line:     frame.Line,
		Function: fmt.Sprintf("%n", c),
	}
}

func messageText(message any) string {
	switch m := message.(type) {
	case nil:
		return ""
	case string:
		return m
	case error:
		return m.Error()
	default:
		return fmt.Sprint(m)
	}
}

type threadKey struct{}

// WithThread labels log calls made with the returned context.
func WithThread(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, threadKey{}, name)
}

// Thread returns the label attached by WithThread, or "Main".
func Thread(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(threadKey{}).(string); ok && strings.TrimSpace(name) != "" {
			return name
		}
	}
	return "Main"
}
