// Package app provides the orchestration layer for logdeck.
//
// # Overview
//
// This package wires together configuration, the logger, the console, the log
// follower and the overlay UI. It is the composition root where every
// dependency is created and connected.
//
// # Architecture
//
//  1. Load settings from ~/.config/logdeck/config.toml (YAML also accepted)
//  2. Load UI preferences (theme, opacity, auto follow)
//  3. Build the logger and the console around it
//  4. Wrap the demo host in the overlay and create the Bubble Tea program
//  5. Launch the console with a queue dispatcher that wakes the program
//  6. Seed and follow the --follow log file, start the heartbeat
//  7. Run the program until the user quits or the context is cancelled
//
// # Components
//
//   - app.go: Run, option defaults and follower startup
//   - heartbeat.go: Background goroutine that logs at a fixed cadence
//   - host.go: Demo host model that logs every key it receives
//   - export.go: Headless export of a log file
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()       Read settings
//	       ├─────> console.New()       Buffer, filter and export state
//	       ├─────> ui.New()            Overlay around the host
//	       ├─────> console.Launch()    Attach the queue dispatcher
//	       ├─────> startFollow()       Tail --follow into the console
//	       ├─────> StartHeartbeat()    Periodic demo lines
//	       └─────> program.Run()       Start TUI (blocks)
//
//	Any goroutine:
//	┌─────────────────────────────────────────┐
//	│ logger.Log() / console.AddLogLine()     │
//	│  └─> queue.Dispatch()                   │
//	│      └─> program.Send(ui.DrainMsg{})    │
//	│          └─> overlay drains on UI loop  │
//	└─────────────────────────────────────────┘
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Config file that exists but cannot be read
//   - Bubble Tea program failure
//
// Recoverable errors (logged into the console):
//   - Malformed settings, which fall back to defaults per key
//   - Follow failures, retried with backoff
//
// With the console disabled the host runs on its own and nothing is captured.
package app
