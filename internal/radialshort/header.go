package radialshort

import (
	"fmt"
	"strings"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

const tableTypeMarker = "\n%TableType"

var unitLines = []string{
	"%%   Longitude   Latitude    U comp   V comp  VectorFlag    Spatial     Velocity    " +
		"Velocity  Velocity Spatial  X Distance  Y Distance   Range   Bearing   Velocity  " +
		"Direction   Spectra",
	"%%     (deg)       (deg)     (cm/s)   (cm/s)  (GridCode)    Quality     Maximum     " +
		"Minimum    Count    Count      (km)        (km)       (km)    (True)    (cm/s)     " +
		"(True)    RngCell",
}

// SchemaMismatchError is returned by RegenerateHeader when the declared
// schema and the table disagree on the number of columns.
type SchemaMismatchError struct {
	Schema       string
	SchemaFields int
	TableColumns int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema %q declares %d columns, table has %d", e.Schema, e.SchemaFields, e.TableColumns)
}

// RegenerateHeader rewrites a radialmetric header for a radialshort table.
// Everything from the '%TableType' line on is replaced with the table type,
// column count, column types, row count, '%TableStart:' and the column unit
// comments.
func RegenerateHeader(t *lluv.Table, schema, header string) (string, error) {
	fields := len(strings.Fields(schema))
	if fields != t.Cols() {
		return "", &SchemaMismatchError{Schema: schema, SchemaFields: fields, TableColumns: t.Cols()}
	}

	kept, _, _ := strings.Cut(header, tableTypeMarker)

	var b strings.Builder
	b.WriteString(kept)
	fmt.Fprintf(&b, "\n%%TableType: %s", TableType)
	fmt.Fprintf(&b, "\n%%TableColumns: %d", t.Cols())
	fmt.Fprintf(&b, "\n%%TableColumnTypes: %s", schema)
	fmt.Fprintf(&b, "\n%%TableRows: %d", t.Rows())
	b.WriteString("\n%TableStart:")
	for _, line := range unitLines {
		b.WriteString("\n" + line)
	}
	return b.String(), nil
}
