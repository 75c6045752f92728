package radialshort

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/qc"
)

func readFixture(t *testing.T) *lluv.File {
	t.Helper()

	f, err := lluv.ReadFile(filepath.Join("testdata", "RDLv_TEST_2013_11_05_0000.ruv"))
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return f
}

func TestGenerate(t *testing.T) {
	in := readFixture(t)
	before := in.Table.Checksum()

	out, sum, err := Generate(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedSummary := Summary{InputRows: 6, GoodRows: 4, Cells: 3, EmptyCells: 0}
	if sum != expectedSummary {
		t.Errorf("Expected summary %+v, got %+v", expectedSummary, sum)
	}

	if in.Table.Checksum() != before {
		t.Error("Input table was modified")
	}
	if out.Footer != in.Footer {
		t.Errorf("Expected footer to pass through, got %q", out.Footer)
	}
	if !out.Table.Schema().Equal(Schema) {
		t.Errorf("Unexpected schema: %s", out.Table.Schema())
	}

	// (1,10) and (1,11) share the window [r1 r2 r3] with MUSIC power weights 1, 10, 1
	expected := []struct {
		rangeCell, bearing, velocity, count float64
	}{
		{1, 10, 20, 3},
		{1, 11, 20, 3},
		{2, 10, 5, 1},
	}
	for i, want := range expected {
		if value(t, out.Table, i, lluv.SPRC) != want.rangeCell || value(t, out.Table, i, lluv.BEAR) != want.bearing {
			t.Fatalf("Row %d: unexpected cell (%v, %v)", i,
				value(t, out.Table, i, lluv.SPRC), value(t, out.Table, i, lluv.BEAR))
		}
		if got := value(t, out.Table, i, lluv.VELO); math.Abs(got-want.velocity) > tolerance {
			t.Errorf("Row %d: expected velocity %v, got %v", i, want.velocity, got)
		}
		if got := value(t, out.Table, i, lluv.EDVC); got != want.count {
			t.Errorf("Row %d: expected count %v, got %v", i, want.count, got)
		}
	}

	if rows, _ := lluv.HeaderValue(out.Header, "TableRows"); rows != "3" {
		t.Errorf("Expected 3 table rows in header, got %q", rows)
	}
}

func TestGenerate_WithoutQC(t *testing.T) {
	opts := DefaultOptions()
	opts.QC = false
	opts.Policy = qc.WeightNone

	out, sum, err := Generate(readFixture(t), opts)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if sum.GoodRows != 6 || sum.Cells != 5 {
		t.Errorf("Expected 6 good rows and 5 cells, got %+v", sum)
	}

	// (1,12) is averaged with (1,11) when QC is off
	if got := value(t, out.Table, 2, lluv.VELO); math.Abs(got-(-5)) > tolerance {
		t.Errorf("Expected unweighted velocity -5 for (1,12), got %v", got)
	}
}

func TestGenerate_WriteRoundTrip(t *testing.T) {
	out, _, err := Generate(readFixture(t), DefaultOptions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err = lluv.Write(&buf, out); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	back, err := lluv.Read(&buf)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if !back.Table.Schema().Equal(Schema) {
		t.Errorf("Unexpected schema after round trip: %s", back.Table.Schema())
	}
	if back.Table.Rows() != out.Table.Rows() {
		t.Errorf("Expected %d rows, got %d", out.Table.Rows(), back.Table.Rows())
	}
	if !strings.HasSuffix(back.Footer, "%End:") {
		t.Errorf("Unexpected footer: %q", back.Footer)
	}
}

func TestGenerate_Errors(t *testing.T) {
	in := readFixture(t)

	opts := DefaultOptions()
	opts.Policy = "median"
	if _, _, err := Generate(in, opts); !errors.Is(err, qc.ErrUnknownWeightPolicy) {
		t.Errorf("Expected ErrUnknownWeightPolicy, got %v", err)
	}

	table, err := lluv.FromRows(lluv.MustParseSchema("SPRC BEAR VELO"), [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	var schemaErr *lluv.SchemaError
	if _, _, err = Generate(&lluv.File{Table: table}, DefaultOptions()); !errors.As(err, &schemaErr) {
		t.Errorf("Expected SchemaError, got %v", err)
	}
}
