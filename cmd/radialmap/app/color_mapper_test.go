package app

import (
	"image/color"
	"math"
	"testing"
)

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// similar allows for the rounding of a Lab round trip.
func similar(a, b color.RGBA) bool {
	near := func(x, y uint8) bool {
		return max(x, y)-min(x, y) <= 1
	}
	return near(a.R, b.R) && near(a.G, b.G) && near(a.B, b.B) && a.A == b.A
}

func TestColorMapper_GetColor(t *testing.T) {
	bounds := VelocityBounds{Max: 40}

	for theme := range validThemes {
		t.Run(string(theme), func(t *testing.T) {
			cm := NewColorMapper(theme, bounds)
			if cm.ThemeName() != theme || cm.Size() != DefaultColorMapSize {
				t.Fatalf("Unexpected mapper: %s, %d", cm.ThemeName(), cm.Size())
			}

			if got := rgba(cm.GetColor(math.NaN())); got != rgba(NoDataColor) {
				t.Errorf("Expected no-data color for NaN, got %v", got)
			}

			// values beyond the bound are clamped to the ends
			if rgba(cm.GetColor(-40)) != rgba(cm.GetColor(-1000)) {
				t.Error("Expected negative velocities to clamp")
			}
			if rgba(cm.GetColor(40)) != rgba(cm.GetColor(1000)) {
				t.Error("Expected positive velocities to clamp")
			}
			if rgba(cm.GetColor(-40)) == rgba(cm.GetColor(40)) {
				t.Error("Expected ends of the scale to differ")
			}

			ends := themes[theme]
			if got, want := rgba(cm.GetColor(-40)), rgba(ends[0]); !similar(got, want) {
				t.Errorf("Expected %v at the negative end, got %v", want, got)
			}
			if got, want := rgba(cm.GetColor(40)), rgba(ends[2]); !similar(got, want) {
				t.Errorf("Expected %v at the positive end, got %v", want, got)
			}
		})
	}
}

func TestColorMapper_Classic(t *testing.T) {
	cm := NewColorMapper(ClassicTheme, VelocityBounds{Max: 50})

	towards := rgba(cm.GetColor(-30))
	if towards.B <= towards.R {
		t.Errorf("Expected velocities towards the site to be blue, got %v", towards)
	}

	away := rgba(cm.GetColor(30))
	if away.R <= away.B {
		t.Errorf("Expected velocities away from the site to be red, got %v", away)
	}

	centre := rgba(cm.GetColor(0))
	if centre.R < 0xe0 || centre.G < 0xe0 || centre.B < 0xe0 {
		t.Errorf("Expected a light centre, got %v", centre)
	}
}

func TestColorMapper_UpdateBounds(t *testing.T) {
	cm := NewColorMapperWithSize(ClassicTheme, VelocityBounds{Max: 10}, 64)
	before := rgba(cm.GetColor(10))

	cm.UpdateBounds(VelocityBounds{Max: 100})
	if rgba(cm.GetColor(100)) != before {
		t.Error("Expected the gradient end to follow the new bound")
	}
	if rgba(cm.GetColor(10)) == before {
		t.Error("Expected 10 cm/s to move away from the end")
	}
}

func TestColorMapper_UnknownTheme(t *testing.T) {
	cm := NewColorMapperWithSize("sunset", VelocityBounds{Max: 10}, 0)
	if cm.ThemeName() != ClassicTheme || cm.Size() != DefaultColorMapSize {
		t.Errorf("Expected classic theme with default size, got %s, %d", cm.ThemeName(), cm.Size())
	}
}
