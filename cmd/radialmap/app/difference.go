package app

import (
	"fmt"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/qc"
)

// velocityDifference keeps the cells of t that are also present in base and
// sets their VELO to the difference t minus base. Other columns come from t.
func velocityDifference(t, base *lluv.Table) (*lluv.Table, error) {
	cells, err := qc.Cells(t)
	if err != nil {
		return nil, fmt.Errorf("resolving cells: %w", err)
	}
	baseCells, err := qc.Cells(base)
	if err != nil {
		return nil, fmt.Errorf("resolving base cells: %w", err)
	}

	velo, err := t.Schema().Index(lluv.VELO)
	if err != nil {
		return nil, err
	}
	baseVelo, err := base.Schema().Index(lluv.VELO)
	if err != nil {
		return nil, err
	}

	rows, baseRows := qc.CellIntersect(cells, baseCells)

	out := lluv.NewTable(t.Schema(), len(rows))
	for k, i := range rows {
		for j := 0; j < t.Cols(); j++ {
			out.Set(k, j, t.At(i, j))
		}
		out.Set(k, velo, t.At(i, velo)-base.At(baseRows[k], baseVelo))
	}
	return out, nil
}
