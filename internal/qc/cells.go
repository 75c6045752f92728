package qc

import (
	"cmp"
	"encoding/binary"
	"math"
	"slices"

	"github.com/zeebo/xxh3"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// UniqueGoodCells returns the distinct combinations of SPRC, BEAR, VFLG and
// the extra columns for rows where VFLG is 0. Rows are sorted by range cell,
// then bearing, then the remaining columns in order, so identical input always
// yields the same row order. The returned table's schema is
// 'SPRC BEAR VFLG <extra...>'.
func UniqueGoodCells(t *lluv.Table, extra ...string) (*lluv.Table, error) {
	names := append([]string{lluv.SPRC, lluv.BEAR, lluv.VFLG}, extra...)

	schema, err := lluv.NewSchema(names...)
	if err != nil {
		return nil, err
	}

	columns, err := t.Schema().Indexes(names...)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if t.At(i, columns[2]) != 0 {
			continue
		}

		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = t.At(i, col)
		}
		rows = append(rows, row)
	}

	rows = uniqueRows(rows)
	slices.SortFunc(rows, compareRows)

	return lluv.FromRows(schema, rows)
}

// uniqueRows drops rows that are bit-identical to an earlier row, keeping
// first occurrences in order.
func uniqueRows(rows [][]float64) [][]float64 {
	buckets := make(map[uint64][]int, len(rows))
	unique := make([][]float64, 0, len(rows))

	var buf []byte
	for _, row := range rows {
		buf = buf[:0]
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		key := xxh3.Hash(buf)

		duplicate := slices.ContainsFunc(buckets[key], func(i int) bool {
			return sameBits(unique[i], row)
		})
		if duplicate {
			continue
		}

		buckets[key] = append(buckets[key], len(unique))
		unique = append(unique, row)
	}
	return unique
}

func sameBits(a, b []float64) bool {
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

// compareRows orders rows column by column, NaN sorts first.
func compareRows(a, b []float64) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Cell is a (range cell, bearing) pair.
type Cell [2]float64

// CellIntersect returns, for every cell of a that also appears in b, its row
// in a and the row of its first occurrence in b.
func CellIntersect(a, b []Cell) (rowsA, rowsB []int) {
	first := make(map[Cell]int, len(b))
	for i, cell := range b {
		if _, ok := first[cell]; !ok {
			first[cell] = i
		}
	}

	for i, cell := range a {
		if j, ok := first[cell]; ok {
			rowsA = append(rowsA, i)
			rowsB = append(rowsB, j)
		}
	}
	return rowsA, rowsB
}

// Cells returns the SPRC and BEAR columns of t as cells.
func Cells(t *lluv.Table) ([]Cell, error) {
	idx, err := t.Schema().Indexes(lluv.SPRC, lluv.BEAR)
	if err != nil {
		return nil, err
	}

	cells := make([]Cell, t.Rows())
	for i := range cells {
		cells[i] = Cell{t.At(i, idx[0]), t.At(i, idx[1])}
	}
	return cells, nil
}
