package app

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme represents a predefined diverging colour scheme. Negative
// velocities (towards the site) take the first end colour, positive
// velocities (away from the site) the last.
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to white to red
	MarineTheme    ColorTheme = "marine"    // Teal to white to brown
	GrayscaleTheme ColorTheme = "grayscale" // Black to grey to white

	DefaultColorMapSize = 256 // Default number of colors in the map
)

var validThemes = map[ColorTheme]struct{}{
	ClassicTheme:   {},
	MarineTheme:    {},
	GrayscaleTheme: {},
}

// NoDataColor is used for cells without a velocity.
var NoDataColor color.Color = color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}

// diverging holds the negative end, centre and positive end of a theme.
type diverging [3]colorful.Color

var themes = map[ColorTheme]diverging{
	ClassicTheme: {
		{R: 0x21 / 255.0, G: 0x66 / 255.0, B: 0xac / 255.0},
		{R: 0xf7 / 255.0, G: 0xf7 / 255.0, B: 0xf7 / 255.0},
		{R: 0xb2 / 255.0, G: 0x18 / 255.0, B: 0x2b / 255.0},
	},
	MarineTheme: {
		{R: 0x01 / 255.0, G: 0x66 / 255.0, B: 0x5e / 255.0},
		{R: 0xf5 / 255.0, G: 0xf5 / 255.0, B: 0xf5 / 255.0},
		{R: 0x8c / 255.0, G: 0x51 / 255.0, B: 0x0a / 255.0},
	},
	GrayscaleTheme: {
		{R: 0, G: 0, B: 0},
		{R: 0.5, G: 0.5, B: 0.5},
		{R: 1, G: 1, B: 1},
	},
}

// ColorMapper maps velocities to colours from a pre-computed gradient
// spanning [-bounds.Max, +bounds.Max].
type ColorMapper struct {
	colorMap  []color.Color
	themeName ColorTheme
	size      int
	bound     float64
}

// NewColorMapper creates a new color mapper with specified theme and bounds.
// Uses default size (256) for the color map.
func NewColorMapper(theme ColorTheme, bounds VelocityBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a new color mapper with specified size. An
// unknown theme falls back to ClassicTheme.
func NewColorMapperWithSize(theme ColorTheme, bounds VelocityBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}
	if _, ok := themes[theme]; !ok {
		theme = ClassicTheme
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		themeName: theme,
		size:      size,
	}

	ends := themes[theme]
	for i := 0; i < size; i++ {
		t := float64(i) / float64(size-1)

		var c colorful.Color
		if t < 0.5 {
			c = ends[0].BlendLab(ends[1], t*2)
		} else {
			c = ends[1].BlendLab(ends[2], (t-0.5)*2)
		}
		cm.colorMap[i] = c.Clamped()
	}

	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the velocity range without rebuilding the gradient.
func (cm *ColorMapper) UpdateBounds(bounds VelocityBounds) {
	cm.bound = bounds.Max
}

// GetColor returns a color for the given velocity in cm/s.
func (cm *ColorMapper) GetColor(velocity float64) color.Color {
	if math.IsNaN(velocity) {
		return NoDataColor
	}

	t := (velocity + cm.bound) / (2 * cm.bound)
	index := int(math.Round(t * float64(cm.size-1)))

	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return cm.size
}
