package lluv

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
	"gonum.org/v1/gonum/mat"
)

// Table is a numeric table whose columns are described by a Schema.
// Missing values are stored as NaN.
type Table struct {
	schema *Schema

	// nil for a table without rows, mat.Dense has no zero-length form
	data *mat.Dense
}

// NewTable creates a table with the given number of rows where every value is NaN.
func NewTable(schema *Schema, rows int) *Table {
	if rows == 0 {
		return &Table{schema: schema}
	}

	values := make([]float64, rows*schema.Len())
	for i := range values {
		values[i] = math.NaN()
	}
	return &Table{schema: schema, data: mat.NewDense(rows, schema.Len(), values)}
}

// FromRows creates a table from a copy of rows. Every row must have exactly
// one value per schema column.
func FromRows(schema *Schema, rows [][]float64) (*Table, error) {
	for i, row := range rows {
		if len(row) != schema.Len() {
			return nil, fmt.Errorf("row %d has %d values, schema has %d columns", i, len(row), schema.Len())
		}
	}
	if len(rows) == 0 {
		return &Table{schema: schema}, nil
	}

	data := mat.NewDense(len(rows), schema.Len(), nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}
	return &Table{schema: schema, data: data}, nil
}

// Schema returns the table schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// Rows returns the number of rows.
func (t *Table) Rows() int {
	if t.data == nil {
		return 0
	}
	r, _ := t.data.Dims()
	return r
}

// Cols returns the number of columns.
func (t *Table) Cols() int {
	return t.schema.Len()
}

// At returns the value at row i, column j.
func (t *Table) At(i, j int) float64 {
	return t.data.At(i, j)
}

// Set sets the value at row i, column j.
func (t *Table) Set(i, j int, v float64) {
	t.data.Set(i, j, v)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []float64 {
	return append([]float64(nil), t.data.RawRowView(i)...)
}

// Column returns a copy of column j.
func (t *Table) Column(j int) []float64 {
	if t.data == nil {
		return []float64{}
	}
	return mat.Col(nil, j, t.data)
}

// SetColumn replaces column j with v.
func (t *Table) SetColumn(j int, v []float64) error {
	if len(v) != t.Rows() {
		return fmt.Errorf("column has %d values, table has %d rows", len(v), t.Rows())
	}
	if t.data != nil {
		t.data.SetCol(j, v)
	}
	return nil
}

// Clone returns a deep copy of the table. The schema is shared, schemas are
// never modified after creation.
func (t *Table) Clone() *Table {
	if t.data == nil {
		return &Table{schema: t.schema}
	}
	return &Table{schema: t.schema, data: mat.DenseCopyOf(t.data)}
}

// Checksum returns an xxh3 digest of the schema and every value in row order.
// Two tables with the same schema and bit-identical values share a checksum.
// Every NaN hashes the same.
func (t *Table) Checksum() uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(t.schema.String())

	var buf [8]byte
	for i := range t.Rows() {
		for _, v := range t.data.RawRowView(i) {
			if math.IsNaN(v) {
				v = math.NaN()
			}
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// Concat appends the rows of all tables into a new table. All tables must
// share the same schema.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("concat: no tables given")
	}

	schema := tables[0].schema
	var filled []*mat.Dense
	for i, t := range tables {
		if !schema.Equal(t.schema) {
			return nil, fmt.Errorf("concat: table %d schema %q differs from %q", i, t.schema, schema)
		}
		if t.data != nil {
			filled = append(filled, t.data)
		}
	}

	switch len(filled) {
	case 0:
		return &Table{schema: schema}, nil
	case 1:
		return &Table{schema: schema, data: mat.DenseCopyOf(filled[0])}, nil
	}

	data := &mat.Dense{}
	data.Stack(filled[0], filled[1])
	for _, next := range filled[2:] {
		stacked := &mat.Dense{}
		stacked.Stack(data, next)
		data = stacked
	}
	return &Table{schema: schema, data: data}, nil
}
