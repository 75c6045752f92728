package storage

import (
	"time"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/radialshort"
)

// Run describes a single radialmetric to radialshort conversion.
type Run struct {
	ID            int64     `json:"ID"`                      // Unique identifier for the run
	CreatedAt     time.Time `json:"createdAt"`               // When the run was recorded
	Site          string    `json:"site"`                    // Site code from the file header
	DataTime      time.Time `json:"dataTime"`                // Time of the data, zero if unknown
	Sources       []string  `json:"sources"`                 // Radialmetric files merged into the run
	OutputFile    string    `json:"outputFile,omitempty"`    // Radialshort file written, if any
	Policy        string    `json:"policy"`                  // Weight policy used for averaging
	BearingSpread float64   `json:"bearingSpread"`           // Averaging window half-width in degrees
	QC            bool      `json:"qc"`                      // Whether threshold tests were run
	InputRows     int       `json:"inputRows"`               // Radialmetric rows read
	GoodRows      int       `json:"goodRows"`                // Rows that passed QC
	Cells         int       `json:"cells"`                   // Radialshort rows produced
	EmptyCells    int       `json:"emptyCells"`              // Cells without observations
	Checksum      uint64    `json:"checksum"`                // Checksum of the radialshort table
	Config        *string   `json:"config,string,omitempty"` // Optional processing configuration in JSON format
}

// Radial is a single radialshort cell. Missing values are NaN.
type Radial struct {
	Longitude    float64 // LOND
	Latitude     float64 // LATD
	U            float64 // VELU, cm/s
	V            float64 // VELV, cm/s
	Flag         float64 // VFLG
	StdDev       float64 // ESPC
	Max          float64 // MAXV
	Min          float64 // MINV
	Count        float64 // EDVC
	SpectraCount float64 // ERSC
	X            float64 // XDST, km
	Y            float64 // YDST, km
	Range        float64 // RNGE, km
	Bearing      float64 // BEAR, degrees true
	Velocity     float64 // VELO, cm/s
	Heading      float64 // HEAD, degrees true
	RangeCell    float64 // SPRC
}

// values returns the radial in radialshort.Schema column order.
func (r *Radial) values() []float64 {
	return []float64{
		r.Longitude, r.Latitude, r.U, r.V, r.Flag, r.StdDev, r.Max, r.Min, r.Count,
		r.SpectraCount, r.X, r.Y, r.Range, r.Bearing, r.Velocity, r.Heading, r.RangeCell,
	}
}

// Radials converts a slice of radials to a radialshort table.
func Radials(radials []Radial) *lluv.Table {
	rows := make([][]float64, len(radials))
	for i := range radials {
		rows[i] = radials[i].values()
	}

	// widths always match radialshort.Schema
	t, _ := lluv.FromRows(radialshort.Schema, rows)
	return t
}
