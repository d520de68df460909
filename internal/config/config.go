package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrMalformed marks a settings file that could not be fully applied. The
// returned Config still carries usable defaults.
var ErrMalformed = errors.New("malformed settings")

// Color is an RGB color parsed from a hex string.
type Color struct {
	R, G, B uint8
}

// Hex renders the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Console holds the overlay settings.
type Console struct {
	Enabled        bool
	AutoStart      bool
	ShakeGesture   bool
	ToggleKey      string
	BackColor      Color
	TextColor      Color
	FontSize       float64
	RowSpacing     float64
	Opacity        float64
	ExportDir      string
	ExportCompress bool
}

// EstimatedRowHeight mirrors the row height a point-based renderer would use.
func (c Console) EstimatedRowHeight() float64 {
	return c.FontSize + c.RowSpacing
}

// Log holds the logger settings.
type Log struct {
	Enabled    bool
	DateFormat string
	Files      map[string]bool
}

// Config is the full settings document.
type Config struct {
	Console Console
	Log     Log
}

const (
	defaultConfigPath = "~/.config/logdeck/config.toml"
	defaultExportDir  = "~/Documents"
	defaultToggleKey  = "ctrl+t"
	defaultDateFormat = "2006-01-02 15:04:05.000"

	defaultFontSize   = 12.0
	defaultRowSpacing = 4.0
	defaultOpacity    = 0.7

	minOpacity = 0.1
	maxOpacity = 1.0
)

var (
	defaultBackColor = Color{0, 0, 0}
	defaultTextColor = Color{0xFF, 0xFF, 0xFF}
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Console: Console{
			Enabled:      false,
			AutoStart:    false,
			ShakeGesture: true,
			ToggleKey:    defaultToggleKey,
			BackColor:    defaultBackColor,
			TextColor:    defaultTextColor,
			FontSize:     defaultFontSize,
			RowSpacing:   defaultRowSpacing,
			Opacity:      defaultOpacity,
			ExportDir:    mustExpand(defaultExportDir),
		},
		Log: Log{
			Enabled:    true,
			DateFormat: defaultDateFormat,
			Files:      map[string]bool{},
		},
	}
}

// table is one decoded section of the settings file. Keys with the wrong
// type are reported and leave the default in place.
type table struct {
	name     string
	values   map[string]any
	problems *[]string
}

func section(raw map[string]any, name string, problems *[]string) table {
	t := table{name: name, problems: problems}
	v, ok := raw[name]
	if !ok {
		return t
	}
	values, ok := v.(map[string]any)
	if !ok {
		*problems = append(*problems, fmt.Sprintf("%s: want a table, got %T", name, v))
		return t
	}
	t.values = values
	return t
}

func (t table) fail(key, format string, args ...any) {
	*t.problems = append(*t.problems, t.name+"."+key+": "+fmt.Sprintf(format, args...))
}

func (t table) boolean(key string, dst *bool) {
	v, ok := t.values[key]
	if !ok {
		return
	}
	b, ok := v.(bool)
	if !ok {
		t.fail(key, "want a boolean, got %T", v)
		return
	}
	*dst = b
}

func (t table) text(key string) (string, bool) {
	v, ok := t.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		t.fail(key, "want a string, got %T", v)
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (t table) number(key string) (float64, bool) {
	v, ok := t.values[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		t.fail(key, "want a number, got %T", v)
		return 0, false
	}
}

func (t table) color(key string, dst *Color) {
	hex, ok := t.text(key)
	if !ok {
		return
	}
	color, err := ParseColor(hex)
	if err != nil {
		t.fail(key, "%v", err)
		return
	}
	*dst = color
}

// Load reads settings from path, or the default location when path is empty.
// A missing file yields defaults and a nil error. Anything else that keeps a
// setting from being applied yields the default for that setting, plus an
// error wrapping ErrMalformed.
func Load(path string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return cfg, fmt.Errorf("resolve config: %w: %w", ErrMalformed, err)
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w: %w", ErrMalformed, err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w: %w", ErrMalformed, err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w: %v", ErrMalformed, err)
	}

	problems := apply(&cfg, raw)
	if len(problems) > 0 {
		return cfg, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(problems, "; "))
	}
	return cfg, nil
}

func apply(cfg *Config, raw map[string]any) []string {
	var problems []string
	c := &cfg.Console
	rc := section(raw, "console", &problems)

	rc.boolean("enabled", &c.Enabled)
	rc.boolean("autostart", &c.AutoStart)
	rc.boolean("shake_gesture", &c.ShakeGesture)
	if key, ok := rc.text("toggle_key"); ok {
		c.ToggleKey = key
	}
	rc.color("back_color", &c.BackColor)
	rc.color("text_color", &c.TextColor)
	if size, ok := rc.number("font_size"); ok {
		if size > 0 {
			c.FontSize = size
		} else {
			rc.fail("font_size", "%v must be positive", size)
		}
	}
	if spacing, ok := rc.number("row_spacing"); ok {
		if spacing >= 0 {
			c.RowSpacing = spacing
		} else {
			rc.fail("row_spacing", "%v must not be negative", spacing)
		}
	}
	if opacity, ok := rc.number("opacity"); ok {
		c.Opacity = ClampOpacity(opacity)
	}
	if dir, ok := rc.text("export_dir"); ok {
		c.ExportDir = mustExpand(dir)
	}
	rc.boolean("export_compress", &c.ExportCompress)

	rl := section(raw, "log", &problems)
	rl.boolean("enabled", &cfg.Log.Enabled)
	if layout, ok := rl.text("date_format"); ok {
		cfg.Log.DateFormat = layout
	}
	files := section(rl.values, "files", &problems)
	files.name = "log.files"
	for name, v := range files.values {
		enabled, ok := v.(bool)
		if !ok {
			files.fail(name, "want a boolean, got %T", v)
			continue
		}
		cfg.Log.Files[strings.TrimSpace(name)] = enabled
	}
	return problems
}

// ClampOpacity keeps opacity within the range the overlay can render.
func ClampOpacity(v float64) float64 {
	switch {
	case v < minOpacity:
		return minOpacity
	case v > maxOpacity:
		return maxOpacity
	default:
		return v
	}
}

// ParseColor reads RRGGBB with an optional leading # or 0x.
func ParseColor(hex string) (Color, error) {
	s := strings.TrimSpace(hex)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q", hex)
	}
	return Color{
		R: uint8(v >> 16 & 0xFF),
		G: uint8(v >> 8 & 0xFF),
		B: uint8(v & 0xFF),
	}, nil
}

// DefaultPath returns the default settings location.
func DefaultPath() string {
	return defaultConfigPath
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
