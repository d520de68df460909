// Package config loads logdeck's console and logger settings.
//
// # Overview
//
// Settings live in a single document with two tables: [console] controls the
// overlay, [log] controls the logging facade. The file may be TOML (default)
// or YAML, chosen by extension.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/logdeck/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but keys are missing, use defaults for those keys
//
// # Default Values
//
//   - enabled: false, autostart: false, shake_gesture: true
//   - toggle_key: ctrl+t
//   - back_color: 000000, text_color: FFFFFF
//   - font_size: 12, row_spacing: 4, opacity: 0.7
//   - export_dir: ~/Documents
//   - log.enabled: true, log.date_format: 2006-01-02 15:04:05.000
//
// # TOML Format
//
//	[console]
//	enabled = true
//	autostart = true
//	back_color = "#1E1E2E"
//	opacity = 0.8
//
//	[log]
//	date_format = "15:04:05.000"
//
//	[log.files]
//	Brain = false
//
// # Error Handling
//
// A malformed document is never fatal. Load returns a Config holding defaults
// for every key it could not apply, together with an error wrapping
// ErrMalformed. Callers log the error and keep going. Only path expansion and
// I/O failures other than os.ErrNotExist are reported without ErrMalformed.
package config
