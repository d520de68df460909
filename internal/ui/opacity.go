package ui

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/five82/logdeck/internal/config"
)

// palette is the set of concrete colors the panel is drawn with at one
// opacity level.
type palette struct {
	Back       string // row background
	Text       string // row text
	Toolbar    string // toolbar and menu background
	SeeThrough string // host rows showing past the end of the log
}

func toColorful(c config.Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func hexOr(hex string, fallback colorful.Color) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}

// textAlpha is how strongly text stands out from the background.
func textAlpha(opacity float64) float64 {
	return math.Min(1, math.Max(0.3, opacity*1.1))
}

// toolbarAlpha is how strongly the toolbar stands out from the background.
func toolbarAlpha(opacity float64) float64 {
	return math.Min(0.7, opacity*1.5)
}

// blendPalette mixes the theme's base with the configured colors. At full
// opacity the background is exactly back_color; lower values let more of the
// theme base show through.
func blendPalette(theme Theme, settings config.Console, opacity float64) palette {
	opacity = config.ClampOpacity(opacity)

	base := hexOr(theme.Background, colorful.Color{})
	back := base.BlendRgb(toColorful(settings.BackColor), opacity).Clamped()
	text := back.BlendRgb(toColorful(settings.TextColor), textAlpha(opacity)).Clamped()
	surface := hexOr(theme.Surface, base)
	toolbar := back.BlendRgb(surface, toolbarAlpha(opacity)).Clamped()
	muted := hexOr(theme.Muted, text)
	seeThrough := back.BlendRgb(muted, 1-opacity*0.8).Clamped()

	return palette{
		Back:       back.Hex(),
		Text:       text.Hex(),
		Toolbar:    toolbar.Hex(),
		SeeThrough: seeThrough.Hex(),
	}
}
