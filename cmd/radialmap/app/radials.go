package app

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// Cell is a radialshort cell positioned relative to the site, in km.
type Cell struct {
	X, Y     float64
	Velocity float64 // cm/s, NaN when the cell has no data
}

// RadialData holds the cells to render and their extent. The site is at
// the origin, which always lies inside the extent.
type RadialData struct {
	Site     string
	Time     time.Time // Zero if unknown
	Cells    []Cell
	Empty    int // Cells without a velocity
	Skipped  int // Cells without a position
	MinX     float64
	MaxX     float64
	MinY     float64
	MaxY     float64
	MaxRange float64 // Distance of the farthest cell from the site

	// Set when velocities are differences against a base table
	Difference bool
	BaseTime   time.Time
}

// NewRadialData collects the cells of a radialshort table.
func NewRadialData(t *lluv.Table, site string, timestamp time.Time) (*RadialData, error) {
	idx, err := t.Schema().Indexes(lluv.XDST, lluv.YDST, lluv.VELO)
	if err != nil {
		return nil, fmt.Errorf("resolving radialshort columns: %w", err)
	}

	d := RadialData{
		Site:  site,
		Time:  timestamp,
		Cells: make([]Cell, 0, t.Rows()),
	}

	for i := 0; i < t.Rows(); i++ {
		c := Cell{X: t.At(i, idx[0]), Y: t.At(i, idx[1]), Velocity: t.At(i, idx[2])}
		if math.IsNaN(c.X) || math.IsNaN(c.Y) {
			d.Skipped++
			continue
		}
		if math.IsNaN(c.Velocity) {
			d.Empty++
		}

		d.MinX = min(d.MinX, c.X)
		d.MaxX = max(d.MaxX, c.X)
		d.MinY = min(d.MinY, c.Y)
		d.MaxY = max(d.MaxY, c.Y)
		d.MaxRange = max(d.MaxRange, math.Hypot(c.X, c.Y))

		d.Cells = append(d.Cells, c)
	}

	return &d, nil
}

// Velocities returns the velocity of every cell, NaN included.
func (d *RadialData) Velocities() []float64 {
	v := make([]float64, len(d.Cells))
	for i, c := range d.Cells {
		v[i] = c.Velocity
	}
	return v
}
