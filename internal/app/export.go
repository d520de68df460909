package app

import (
	"context"
	"errors"

	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/console"
	"github.com/five82/logdeck/internal/logger"
	"github.com/five82/logdeck/internal/logtail"
)

const defaultExportTail = 10000

// ExportFile loads the tail of opts.FollowPath into a console without a UI
// and exports it. It returns the written path.
func ExportFile(ctx context.Context, opts Options) (string, error) {
	if opts.FollowPath == "" {
		return "", errors.New("export requires a log file")
	}

	cfg, cfgErr := config.Load(opts.ConfigPath)

	settings := cfg.Console
	settings.Enabled = true
	log := newLogger(cfg.Log, opts.Output)
	if cfgErr != nil {
		log.Log(logger.WithThread(ctx, "Config"), logger.Here(), cfgErr)
	}
	deck := console.New(settings, log)
	defer deck.Close()
	deck.Configure(console.InlineDispatcher{})

	tail := opts.Tail
	if tail <= 0 {
		tail = defaultExportTail
	}
	lines, _, err := logtail.ReadParsed(opts.FollowPath, tail, log.DateFormat())
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		deck.AddLogLine(line)
	}

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)
	deck.ExportLogFile(func(path string, err error) {
		done <- result{path: path, err: err}
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.path, res.err
	}
}
