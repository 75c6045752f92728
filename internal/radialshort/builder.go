package radialshort

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/radialqc/internal/geometry"
	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/qc"
)

// TableType is the LLUV table type of radialshort tables.
const TableType = "LLUV RDL7"

// ErrUnsupportedTableType is returned by BuildSkeleton for table types other than TableType.
var ErrUnsupportedTableType = errors.New("unsupported table type")

// Schema is the fixed column layout of radialshort tables.
var Schema = lluv.MustParseSchema("LOND LATD VELU VELV VFLG ESPC MAXV MINV EDVC ERSC XDST YDST RNGE BEAR VELO HEAD SPRC")

// columns copied from the cell identity into the skeleton
var positionColumns = []string{lluv.LOND, lluv.LATD, lluv.VFLG, lluv.RNGE, lluv.BEAR, lluv.SPRC}

// columns copied from the averaged table during Fill
var averagedColumns = []string{lluv.VELO, lluv.ESPC, lluv.MAXV, lluv.MINV, lluv.EDVC, lluv.ERSC}

// AlignmentError is returned by Fill when the skeleton and the averaged table
// do not describe the same cells in the same order.
type AlignmentError struct {
	Row          int        // First mismatching row, -1 when row counts differ
	SkeletonRows int        // Rows in the skeleton table
	AveragedRows int        // Rows in the averaged table
	Skeleton     [2]float64 // SPRC and BEAR of the skeleton row
	Averaged     [2]float64 // SPRC and BEAR of the averaged row
}

func (e *AlignmentError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("skeleton has %d cells, averaged table has %d", e.SkeletonRows, e.AveragedRows)
	}
	return fmt.Sprintf("row %d: skeleton cell (%v, %v) does not match averaged cell (%v, %v)",
		e.Row, e.Skeleton[0], e.Skeleton[1], e.Averaged[0], e.Averaged[1])
}

// BuildSkeleton creates an empty radialshort table with one row per unique
// good (LOND, LATD, VFLG, RNGE, BEAR, SPRC) combination of a radialmetric
// table, sorted by range cell then bearing. Every other column is NaN.
func BuildSkeleton(t *lluv.Table, tableType string) (*lluv.Table, error) {
	if tableType != TableType {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTableType, tableType)
	}

	cells, err := qc.UniqueGoodCells(t, lluv.LOND, lluv.LATD, lluv.RNGE)
	if err != nil {
		return nil, fmt.Errorf("selecting cells: %w", err)
	}

	from, err := cells.Schema().Indexes(positionColumns...)
	if err != nil {
		return nil, err
	}
	to, err := Schema.Indexes(positionColumns...)
	if err != nil {
		return nil, err
	}

	skeleton := lluv.NewTable(Schema, cells.Rows())
	for i := 0; i < cells.Rows(); i++ {
		for k := range from {
			skeleton.Set(i, to[k], cells.At(i, from[k]))
		}
	}
	return skeleton, nil
}

// Fill returns a copy of skeleton with velocity statistics taken from
// averaged and with heading, velocity components and distance components
// derived from them. Both tables must list the same (SPRC, BEAR) cells in the
// same order, otherwise an AlignmentError is returned.
func Fill(skeleton, averaged *lluv.Table) (*lluv.Table, error) {
	if err := checkAlignment(skeleton, averaged); err != nil {
		return nil, err
	}

	from, err := averaged.Schema().Indexes(averagedColumns...)
	if err != nil {
		return nil, err
	}
	to, err := skeleton.Schema().Indexes(averagedColumns...)
	if err != nil {
		return nil, err
	}

	out := skeleton.Clone()
	for k := range from {
		if err = out.SetColumn(to[k], averaged.Column(from[k])); err != nil {
			return nil, err
		}
	}

	idx, err := out.Schema().Indexes(lluv.BEAR, lluv.VELO, lluv.RNGE, lluv.HEAD, lluv.VELU, lluv.VELV, lluv.XDST, lluv.YDST)
	if err != nil {
		return nil, err
	}
	bear, velo, rnge, head, velu, velv, xdst, ydst := idx[0], idx[1], idx[2], idx[3], idx[4], idx[5], idx[6], idx[7]

	bearings := out.Column(bear)
	headings := make([]float64, len(bearings))
	for i, b := range bearings {
		headings[i] = Heading(b)
	}

	u, v, err := geometry.ToComponentsSlice(out.Column(velo), headings)
	if err != nil {
		return nil, err
	}
	x, y, err := geometry.ToComponentsSlice(out.Column(rnge), bearings)
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		col    int
		values []float64
	}{
		{head, headings},
		{velu, u},
		{velv, v},
		{xdst, x},
		{ydst, y},
	} {
		if err = out.SetColumn(c.col, c.values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Heading returns the direction of a radial velocity vector for a bearing,
// (bearing + 180) mod 360 in [0, 360).
func Heading(bearing float64) float64 {
	h := math.Mod(bearing+180, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func checkAlignment(skeleton, averaged *lluv.Table) error {
	if skeleton.Rows() != averaged.Rows() {
		return &AlignmentError{Row: -1, SkeletonRows: skeleton.Rows(), AveragedRows: averaged.Rows()}
	}

	s, err := skeleton.Schema().Indexes(lluv.SPRC, lluv.BEAR)
	if err != nil {
		return err
	}
	a, err := averaged.Schema().Indexes(lluv.SPRC, lluv.BEAR)
	if err != nil {
		return err
	}

	for i := 0; i < skeleton.Rows(); i++ {
		sc := [2]float64{skeleton.At(i, s[0]), skeleton.At(i, s[1])}
		ac := [2]float64{averaged.At(i, a[0]), averaged.At(i, a[1])}

		// NaN never matches, as with any other comparison
		if sc[0] != ac[0] || sc[1] != ac[1] {
			return &AlignmentError{
				Row:          i,
				SkeletonRows: skeleton.Rows(),
				AveragedRows: averaged.Rows(),
				Skeleton:     sc,
				Averaged:     ac,
			}
		}
	}
	return nil
}
