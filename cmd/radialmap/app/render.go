package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	dpi            = 120.0
	fontSize       = 9.0
	tickMarkWidth  = 5
	colorBarWidth  = 16
	originSize     = 6
	pixelsPerLabel = 120.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 40
	defaultBottomBorder = 40
	defaultRightBorder  = 140

	defaultDatetimeFormat = time.DateTime
)

var (
	ringColor   color.Color = color.RGBA{R: 0xd8, G: 0xd8, B: 0xd8, A: 0xff}
	originColor color.Color = color.Black
)

// BorderConfig defines the sizes of white space around the map
type BorderConfig struct {
	Top    int // Top padding
	Left   int // Left padding
	Bottom int // Space for information bar
	Right  int // Space for colour bar
}

// RenderConfig holds all configuration options for radial map visualization
type RenderConfig struct {
	Scale          int            // Pixels per km
	CellSize       int            // Side of a cell square in pixels, defaults to Scale/2
	DatetimeFormat string         // Format string for date/time display
	Location       *time.Location // Timezone for time display

	FontSize      float64
	ColorTheme    ColorTheme
	ColorMapSize  int // Number of colors in gradient (0 for default)
	NoAnnotations bool

	BorderConfig BorderConfig
}

// MapRenderer draws radialshort cells in plan view, north up, with the site
// at the origin.
type MapRenderer struct {
	colorMap *ColorMapper
	config   RenderConfig
}

// NewMapRenderer creates a new map renderer with the given configuration
func NewMapRenderer(config RenderConfig) (*MapRenderer, error) {
	if config.Scale <= 0 {
		return nil, fmt.Errorf("invalid scale: %d", config.Scale)
	}
	if config.CellSize <= 0 {
		config.CellSize = max(2, config.Scale/2)
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &MapRenderer{config: config}, nil
}

// projection converts site relative km to image pixels.
type projection struct {
	area       image.Rectangle
	scale      float64
	minX, maxY float64
	pad        int
}

func (p projection) point(x, y float64) image.Point {
	return image.Point{
		X: p.area.Min.X + p.pad + int(math.Round((x-p.minX)*p.scale)),
		Y: p.area.Min.Y + p.pad + int(math.Round((p.maxY-y)*p.scale)),
	}
}

// Render creates an image of the radial data with annotations
func (r *MapRenderer) Render(data *RadialData, bounds VelocityBounds) (*image.RGBA, error) {
	pad := r.config.CellSize
	width := int(math.Ceil((data.MaxX-data.MinX)*float64(r.config.Scale))) + 2*pad + 1
	height := int(math.Ceil((data.MaxY-data.MinY)*float64(r.config.Scale))) + 2*pad + 1

	borders := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, width+borders.Left+borders.Right, height+borders.Top+borders.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	proj := projection{
		area:  image.Rect(borders.Left, borders.Top, borders.Left+width, borders.Top+height),
		scale: float64(r.config.Scale),
		minX:  data.MinX,
		maxY:  data.MaxY,
		pad:   pad,
	}

	if r.colorMap == nil {
		r.colorMap = NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)
	} else {
		r.colorMap.UpdateBounds(bounds)
	}

	var ann *annotator
	if !r.config.NoAnnotations {
		var err error
		ann, err = newAnnotator(annotatorConfig{
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        borders,
		}, r.colorMap)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		// rings go under the cells
		ann.drawRangeRings(img, proj, data)
	}

	r.renderCells(img, proj, data)
	drawOrigin(img, proj.point(0, 0))

	if ann != nil {
		if err := ann.annotate(img, proj, data, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	return img, nil
}

// renderCells draws every cell as a square centred on its position.
func (r *MapRenderer) renderCells(img *image.RGBA, proj projection, data *RadialData) {
	half := r.config.CellSize / 2
	for _, c := range data.Cells {
		p := proj.point(c.X, c.Y)
		rect := image.Rect(p.X-half, p.Y-half, p.X-half+r.config.CellSize, p.Y-half+r.config.CellSize)
		draw.Draw(img, rect, image.NewUniform(r.colorMap.GetColor(c.Velocity)), image.Point{}, draw.Src)
	}
}

func drawOrigin(img *image.RGBA, p image.Point) {
	for d := -originSize; d <= originSize; d++ {
		img.Set(p.X+d, p.Y, originColor)
		img.Set(p.X, p.Y+d, originColor)
	}
}

// Internal annotator implementation
type annotatorConfig struct {
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
	colorMap *ColorMapper
}

func newAnnotator(config annotatorConfig, colorMap *ColorMapper) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context:  ctx,
		config:   config,
		colorMap: colorMap,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, proj projection, data *RadialData, bounds VelocityBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.labelRangeRings(proj, data); err != nil {
		return fmt.Errorf("labelling range rings: %w", err)
	}
	if err := a.drawColorBar(img, proj, bounds); err != nil {
		return fmt.Errorf("drawing colour bar: %w", err)
	}
	if err := a.drawInfoBar(img, proj, data, bounds); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) drawRangeRings(img *image.RGBA, proj projection, data *RadialData) {
	step := calculateNiceRangeStep(data.MaxRange, proj.scale)
	if step <= 0 {
		return
	}

	origin := proj.point(0, 0)
	for km := step; km <= data.MaxRange+step/2; km += step {
		radius := km * proj.scale
		n := max(16, int(2*math.Pi*radius))
		for i := 0; i < n; i++ {
			theta := 2 * math.Pi * float64(i) / float64(n)
			x := origin.X + int(math.Round(radius*math.Sin(theta)))
			y := origin.Y - int(math.Round(radius*math.Cos(theta)))
			if (image.Point{X: x, Y: y}).In(proj.area) {
				img.Set(x, y, ringColor)
			}
		}
	}
}

func (a *annotator) labelRangeRings(proj projection, data *RadialData) error {
	step := calculateNiceRangeStep(data.MaxRange, proj.scale)
	if step <= 0 {
		return nil
	}

	origin := proj.point(0, 0)
	for km := step; km <= data.MaxRange+step/2; km += step {
		// label where the ring crosses due north
		y := origin.Y - int(math.Round(km*proj.scale))
		if y < proj.area.Min.Y {
			break
		}

		pt := freetype.Pt(origin.X+3, y-3)
		if _, err := a.context.DrawString(formatRange(km), pt); err != nil {
			return fmt.Errorf("drawing range label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawColorBar(img *image.RGBA, proj projection, bounds VelocityBounds) error {
	left := proj.area.Max.X + a.config.Borders.Right/4
	top, bottom := proj.area.Min.Y, proj.area.Max.Y-1
	if bottom <= top {
		return nil
	}

	// positive velocities at the top
	for y := top; y <= bottom; y++ {
		v := bounds.Max - 2*bounds.Max*float64(y-top)/float64(bottom-top)
		c := a.colorMap.GetColor(v)
		for x := left; x < left+colorBarWidth; x++ {
			img.Set(x, y, c)
		}
	}

	metrics := a.fontFace.Metrics()
	ascent := metrics.Ascent.Round()

	labels := []struct {
		y int
		v float64
	}{
		{top, bounds.Max},
		{(top + bottom) / 2, 0},
		{bottom, -bounds.Max},
	}
	for _, l := range labels {
		for x := left + colorBarWidth; x < left+colorBarWidth+tickMarkWidth; x++ {
			img.Set(x, l.y, color.Black)
		}

		pt := freetype.Pt(left+colorBarWidth+tickMarkWidth+3, l.y+ascent/2)
		if _, err := a.context.DrawString(formatVelocity(l.v), pt); err != nil {
			return fmt.Errorf("drawing velocity label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, proj projection, data *RadialData, bounds VelocityBounds) error {
	var sb strings.Builder

	if data.Site != "" {
		sb.WriteString("Site: " + data.Site + "; ")
	}
	if !data.Time.IsZero() {
		sb.WriteString("Time: " + data.Time.In(a.config.Location).Format(a.config.DatetimeFormat) + "; ")
	}
	if data.Difference {
		base := "base"
		if !data.BaseTime.IsZero() {
			base = data.BaseTime.In(a.config.Location).Format(a.config.DatetimeFormat)
		}
		sb.WriteString("Minus: " + base + "; ")
	}

	sb.WriteString(fmt.Sprintf("Cells: %s", humanize.Comma(int64(len(data.Cells)))))
	if data.Empty > 0 {
		sb.WriteString(fmt.Sprintf(" (%s empty)", humanize.Comma(int64(data.Empty))))
	}
	sb.WriteString(fmt.Sprintf("; Peak: %s; 1px = %s", formatVelocity(bounds.Peak), formatDistance(1/proj.scale)))

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Center text vertically in bottom border
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-fontHeight)/2 - metrics.Descent.Round()

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}

// Helper functions

// calculateNiceRangeStep picks the ring spacing in km so that rings are at
// least pixelsPerLabel apart. Zero means no rings.
func calculateNiceRangeStep(maxRange, scale float64) float64 {
	if maxRange <= 0 || scale <= 0 {
		return 0
	}

	steps := []float64{0.5, 1, 2, 5, 10, 20, 25, 50, 100, 200}

	minStep := pixelsPerLabel / scale
	for _, step := range steps {
		if step >= minStep {
			return step
		}
	}
	return steps[len(steps)-1]
}

func formatRange(km float64) string {
	return humanize.Ftoa(km) + " km"
}

func formatVelocity(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.0f cm/s", v)
	}
	return fmt.Sprintf("%.0f cm/s", v)
}

func formatDistance(km float64) string {
	value, prefix := humanize.ComputeSI(km * 1000)
	return fmt.Sprintf("%s %sm", humanize.FtoaWithDigits(value, 2), prefix)
}
