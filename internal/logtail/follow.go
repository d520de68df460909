package logtail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultRetry = time.Second
	maxBackoff   = 30 * time.Second
)

// Follower streams lines appended to a file. It watches the file's directory
// so that rotation and late creation are noticed, and restarts the watch with
// exponential backoff when it fails.
type Follower struct {
	Path string
	// Handle receives each complete line without its trailing newline.
	Handle func(line string)
	// OnError is told about watch failures before each retry.
	OnError func(err error)
	// FromStart replays the existing content from Offset instead of starting
	// at the end.
	FromStart bool
	Offset    int64
	// Retry is the base delay between failed watches.
	Retry time.Duration

	path    string
	file    *os.File
	offset  int64
	partial []byte
	primed  bool
}

// Follow tails path until ctx is cancelled, calling fn for every new line.
func Follow(ctx context.Context, path string, fn func(line string)) error {
	f := &Follower{Path: path, Handle: fn}
	return f.Run(ctx)
}

// Run blocks until ctx is cancelled.
func (f *Follower) Run(ctx context.Context) error {
	if f.Handle == nil {
		return errors.New("follow: nil line handler")
	}
	abs, err := filepath.Abs(strings.TrimSpace(f.Path))
	if err != nil {
		return fmt.Errorf("resolve follow path: %w", err)
	}
	f.path = abs
	defer f.closeFile()

	base := f.Retry
	if base <= 0 {
		base = defaultRetry
	}

	failures := 0
	for {
		watched, err := f.watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if watched {
			failures = 0
		}
		if err != nil && f.OnError != nil {
			f.OnError(err)
		}

		wait := calculateBackoff(failures, base)
		failures++
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func (f *Follower) watch(ctx context.Context) (bool, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false, fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(f.path)
	if err := w.Add(dir); err != nil {
		return false, fmt.Errorf("watch %s: %w", dir, err)
	}

	f.prime()
	if err := f.drain(); err != nil {
		return true, err
	}

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case ev, ok := <-w.Events:
			if !ok {
				return true, errors.New("watcher closed")
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create):
				f.reset()
				if err := f.drain(); err != nil {
					return true, err
				}
			case ev.Has(fsnotify.Write):
				if err := f.drain(); err != nil {
					return true, err
				}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				f.reset()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return true, errors.New("watcher closed")
			}
			return true, fmt.Errorf("watch %s: %w", f.path, err)
		}
	}
}

// prime fixes the starting offset the first time the file is watched.
func (f *Follower) prime() {
	if f.primed {
		return
	}
	f.primed = true
	if f.FromStart {
		f.offset = f.Offset
		return
	}
	if info, err := os.Stat(f.path); err == nil {
		f.offset = info.Size()
	}
}

// reset forgets the current file; the next drain starts a new one from zero.
func (f *Follower) reset() {
	f.closeFile()
	f.offset = 0
	f.partial = nil
}

func (f *Follower) closeFile() {
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
}

func (f *Follower) drain() error {
	if f.file == nil {
		file, err := os.Open(f.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("open log: %w", err)
		}
		f.file = file
	}

	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.partial = nil
	}
	if _, err := f.file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	data, err := io.ReadAll(f.file)
	if err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	f.offset += int64(len(data))
	f.emit(data)
	return nil
}

func (f *Follower) emit(data []byte) {
	if len(data) == 0 {
		return
	}
	f.partial = append(f.partial, data...)
	for {
		idx := bytes.IndexByte(f.partial, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(f.partial[:idx]), "\r")
		f.partial = f.partial[idx+1:]
		f.Handle(line)
	}
	f.partial = append([]byte(nil), f.partial...)
}
