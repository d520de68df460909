package app

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/console"
	"github.com/five82/logdeck/internal/logger"
	"github.com/five82/logdeck/internal/logtail"
	"github.com/five82/logdeck/internal/prefs"
	"github.com/five82/logdeck/internal/ui"
)

const defaultTail = 200

// Options configure a logdeck run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/logdeck/prefs.toml
	FollowPath string // log file streamed into the console; empty disables
	Tail       int    // lines of FollowPath loaded up front; zero uses default
	PollEvery  int    // heartbeat seconds; zero uses default
	// Output receives every logged line as text. Nil discards it, which is
	// what the TUI wants.
	Output io.Writer
}

func (o Options) tail() int {
	if o.Tail > 0 {
		return o.Tail
	}
	return defaultTail
}

func (o Options) heartbeat() time.Duration {
	if o.PollEvery > 0 {
		return time.Duration(o.PollEvery) * time.Second
	}
	return defaultHeartbeat
}

func newLogger(cfg config.Log, out io.Writer) *logger.Logger {
	return logger.New(logger.Settings{
		Enabled:    cfg.Enabled,
		DateFormat: cfg.DateFormat,
		Files:      cfg.Files,
	}, logger.WithOutput(out))
}

// Run boots the demo host with the console layered on top until the context
// is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	// Settings that cannot be applied fall back to defaults; the error is
	// logged once the console can show it.
	cfg, cfgErr := config.Load(opts.ConfigPath)

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		userPrefs = prefs.Default()
	}

	log := newLogger(cfg.Log, opts.Output)
	deck := console.New(cfg.Console, log)
	defer deck.Close()

	host := NewHost(log, cfg.Console.ToggleKey, opts.FollowPath)

	var program *tea.Program
	if !cfg.Console.Enabled {
		program = tea.NewProgram(host, tea.WithAltScreen(), tea.WithContext(ctx))
	} else {
		queue := console.NewQueue(func() {
			// Send blocks until the event loop reads it, which could be
			// the very Update that dispatched the work.
			go program.Send(ui.DrainMsg{})
		})
		overlay := ui.New(ui.Options{
			Host:       host,
			Console:    deck,
			Queue:      queue,
			Logger:     log,
			ThemeName:  userPrefs.Theme,
			Opacity:    userPrefs.Opacity,
			AutoFollow: userPrefs.AutoFollow,
			PrefsPath:  opts.PrefsPath,
		})
		program = tea.NewProgram(overlay, tea.WithAltScreen(), tea.WithContext(ctx))
		deck.Launch(queue)
	}

	if cfgErr != nil {
		log.Log(logger.WithThread(ctx, "Config"), logger.Here(), cfgErr)
	}

	if opts.FollowPath != "" && cfg.Console.Enabled {
		startFollow(ctx, deck, log, opts.FollowPath, opts.tail())
	}

	StartHeartbeat(ctx, log, opts.heartbeat(), func(n int) {
		program.Send(BeatMsg{N: n, At: time.Now()})
	})

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// startFollow loads the tail of path into the console, then streams lines
// written from the point the tail read stopped.
func startFollow(ctx context.Context, deck *console.Console, log *logger.Logger, path string, tail int) {
	followCtx := logger.WithThread(ctx, "Follow")
	layout := log.DateFormat()

	lines, offset, err := logtail.ReadParsed(path, tail, layout)
	if err != nil {
		log.Log(followCtx, logger.Here(), err)
	}
	for _, line := range lines {
		deck.AddLogLine(line)
	}

	follower := &logtail.Follower{
		Path: path,
		Handle: func(text string) {
			deck.AddLogLine(logtail.ParseLayout(text, layout))
		},
		OnError: func(err error) {
			log.Log(followCtx, logger.Here(), err)
		},
		FromStart: err == nil,
		Offset:    offset,
	}
	go func() {
		if err := follower.Run(ctx); err != nil {
			log.Log(followCtx, logger.Here(), err)
		}
	}()
}
