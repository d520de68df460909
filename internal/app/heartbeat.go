package app

import (
	"context"
	"time"

	"github.com/five82/logdeck/internal/logger"
)

const defaultHeartbeat = 2 * time.Second

// StartHeartbeat launches a background goroutine that logs a line at a fixed
// cadence and reports each beat to onBeat. It returns immediately.
func StartHeartbeat(ctx context.Context, log *logger.Logger, interval time.Duration, onBeat func(n int)) {
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	ctx = logger.WithThread(ctx, "Heartbeat")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			beat(ctx, log, n, onBeat)
		}
	}()
}

func beat(ctx context.Context, log *logger.Logger, n int, onBeat func(int)) {
	if log != nil {
		log.Logf(ctx, logger.Here(), "heartbeat %d", n)
	}
	if onBeat != nil {
		onBeat(n)
	}
}
