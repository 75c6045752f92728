package radialshort

import (
	"fmt"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/qc"
)

// Options configure Generate.
type Options struct {
	QC            bool          // Run threshold tests before averaging
	Thresholds    qc.Thresholds // Used when QC is set
	BearingSpread float64       // Half-width of the averaging window, degrees
	Policy        qc.WeightPolicy
}

// DefaultOptions returns QC enabled with default thresholds, a 1 degree
// bearing spread and MUSIC power weighting.
func DefaultOptions() Options {
	return Options{
		QC:            true,
		Thresholds:    qc.DefaultThresholds(),
		BearingSpread: qc.DefaultBearingSpread,
		Policy:        qc.WeightMusicPower,
	}
}

// Summary describes a Generate run.
type Summary struct {
	InputRows  int // Radialmetric rows read
	GoodRows   int // Rows with VFLG == 0 after QC
	Cells      int // Radialshort rows written
	EmptyCells int // Cells without any good observation in their window
}

// Generate turns a radialmetric file into a radialshort file. The input file
// is not modified; the footer is passed through unchanged.
func Generate(in *lluv.File, opts Options) (*lluv.File, Summary, error) {
	sum := Summary{InputRows: in.Table.Rows()}

	metric := in.Table
	if opts.QC {
		var err error
		if metric, err = qc.All(metric, opts.Thresholds); err != nil {
			return nil, sum, fmt.Errorf("threshold tests: %w", err)
		}
	}

	good, err := qc.GoodRows(metric)
	if err != nil {
		return nil, sum, err
	}
	sum.GoodRows = good

	skeleton, err := BuildSkeleton(metric, TableType)
	if err != nil {
		return nil, sum, fmt.Errorf("building skeleton: %w", err)
	}

	averages, err := qc.AverageCells(metric, opts.BearingSpread, opts.Policy)
	if err != nil {
		return nil, sum, fmt.Errorf("averaging velocities: %w", err)
	}
	for _, avg := range averages {
		if avg.Stats == nil {
			sum.EmptyCells++
		}
	}

	filled, err := Fill(skeleton, qc.Tabulate(averages))
	if err != nil {
		return nil, sum, fmt.Errorf("filling radialshort table: %w", err)
	}
	sum.Cells = filled.Rows()

	header, err := RegenerateHeader(filled, Schema.String(), in.Header)
	if err != nil {
		return nil, sum, err
	}

	return &lluv.File{Header: header, Table: filled, Footer: in.Footer}, sum, nil
}
