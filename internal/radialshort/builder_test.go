package radialshort

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/roman-kulish/radialqc/internal/geometry"
	"github.com/roman-kulish/radialqc/internal/lluv"
	"github.com/roman-kulish/radialqc/internal/qc"
)

const tolerance = 1e-9

var metricSchema = lluv.MustParseSchema(
	"LOND LATD VFLG MSEL MSR1 MDR1 MDR2 MSW1 MDW1 MDW2 MSP1 MDP1 MDP2 MA3S SPRC BEAR RNGE VELO")

// metricRow returns a good observation, values in vals override the defaults.
func metricRow(vals map[string]float64) []float64 {
	defaults := map[string]float64{
		lluv.LOND: -75.5, lluv.LATD: 35.2, lluv.VFLG: 0, lluv.MSEL: 1,
		lluv.MSR1: 10, lluv.MDR1: 10, lluv.MDR2: 10,
		lluv.MSW1: 20, lluv.MDW1: 20, lluv.MDW2: 20,
		lluv.MSP1: 0, lluv.MDP1: 0, lluv.MDP2: 0,
		lluv.MA3S: 10, lluv.SPRC: 1, lluv.BEAR: 0, lluv.RNGE: 1.5, lluv.VELO: 0,
	}
	for k, v := range vals {
		defaults[k] = v
	}

	row := make([]float64, metricSchema.Len())
	for j, name := range metricSchema.Names() {
		row[j] = defaults[name]
	}
	return row
}

func metricTable(t *testing.T, rows ...map[string]float64) *lluv.Table {
	t.Helper()

	data := make([][]float64, len(rows))
	for i, r := range rows {
		data[i] = metricRow(r)
	}
	table, err := lluv.FromRows(metricSchema, data)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return table
}

func value(t *testing.T, table *lluv.Table, row int, name string) float64 {
	t.Helper()

	j, err := table.Schema().Index(name)
	if err != nil {
		t.Fatalf("Failed to resolve column %s: %v", name, err)
	}
	return table.At(row, j)
}

func TestBuildSkeleton(t *testing.T) {
	table := metricTable(t,
		map[string]float64{lluv.SPRC: 2, lluv.BEAR: 5, lluv.RNGE: 3, lluv.LOND: -75.4},
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 10, lluv.VELO: 3},
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 10, lluv.VELO: 8},
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 15, lluv.VFLG: 4},
	)

	skeleton, err := BuildSkeleton(table, TableType)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !skeleton.Schema().Equal(Schema) {
		t.Fatalf("Unexpected schema: %s", skeleton.Schema())
	}
	if skeleton.Rows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", skeleton.Rows())
	}

	expected := []map[string]float64{
		{lluv.SPRC: 1, lluv.BEAR: 10, lluv.RNGE: 1.5, lluv.LOND: -75.5, lluv.LATD: 35.2, lluv.VFLG: 0},
		{lluv.SPRC: 2, lluv.BEAR: 5, lluv.RNGE: 3, lluv.LOND: -75.4, lluv.LATD: 35.2, lluv.VFLG: 0},
	}
	for i, want := range expected {
		for name, v := range want {
			if got := value(t, skeleton, i, name); got != v {
				t.Errorf("Row %d %s: expected %v, got %v", i, name, v, got)
			}
		}
		for _, name := range []string{lluv.VELO, lluv.VELU, lluv.VELV, lluv.HEAD, lluv.ESPC, lluv.XDST} {
			if got := value(t, skeleton, i, name); !math.IsNaN(got) {
				t.Errorf("Row %d %s: expected NaN, got %v", i, name, got)
			}
		}
	}
}

func TestBuildSkeleton_UnsupportedTableType(t *testing.T) {
	table := metricTable(t, map[string]float64{})

	if _, err := BuildSkeleton(table, "LLUV RDM1"); !errors.Is(err, ErrUnsupportedTableType) {
		t.Errorf("Expected ErrUnsupportedTableType, got %v", err)
	}
}

func TestFill(t *testing.T) {
	table := metricTable(t,
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 10, lluv.VELO: 10},
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 10, lluv.VELO: 20},
		map[string]float64{lluv.SPRC: 3, lluv.BEAR: 270, lluv.RNGE: 4.5, lluv.VELO: -6},
	)

	skeleton, err := BuildSkeleton(table, TableType)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	averaged, err := qc.WeightedVelocities(table, qc.DefaultBearingSpread, qc.WeightNone)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := Fill(skeleton, averaged)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	testCases := []struct {
		row      int
		velocity float64
		bearing  float64
		rng      float64
		std      float64
		count    float64
	}{
		{0, 15, 10, 1.5, 5, 2},
		{1, -6, 270, 4.5, 0, 1},
	}

	for _, tc := range testCases {
		heading := Heading(tc.bearing)
		u, v := geometry.ToComponents(tc.velocity, heading)
		x, y := geometry.ToComponents(tc.rng, tc.bearing)

		expected := map[string]float64{
			lluv.VELO: tc.velocity,
			lluv.ESPC: tc.std,
			lluv.EDVC: tc.count,
			lluv.ERSC: tc.count,
			lluv.HEAD: heading,
			lluv.VELU: u,
			lluv.VELV: v,
			lluv.XDST: x,
			lluv.YDST: y,
		}
		for name, want := range expected {
			if got := value(t, out, tc.row, name); math.Abs(got-want) > tolerance {
				t.Errorf("Row %d %s: expected %v, got %v", tc.row, name, want, got)
			}
		}
	}

	if got := value(t, out, 0, lluv.MAXV); got != 20 {
		t.Errorf("Expected MAXV 20, got %v", got)
	}
	if got := value(t, out, 0, lluv.MINV); got != 10 {
		t.Errorf("Expected MINV 10, got %v", got)
	}

	// skeleton is not modified
	if got := value(t, skeleton, 0, lluv.VELO); !math.IsNaN(got) {
		t.Errorf("Expected skeleton VELO to stay NaN, got %v", got)
	}
}

func TestFill_Alignment(t *testing.T) {
	table := metricTable(t,
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 10},
		map[string]float64{lluv.SPRC: 1, lluv.BEAR: 20},
		map[string]float64{lluv.SPRC: 2, lluv.BEAR: 10},
	)

	skeleton, err := BuildSkeleton(table, TableType)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	averaged, err := qc.WeightedVelocities(table, 0, qc.WeightNone)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("permuted rows", func(t *testing.T) {
		rows := make([][]float64, averaged.Rows())
		for i := range rows {
			rows[i] = averaged.Row(i)
		}
		rows[1], rows[2] = rows[2], rows[1]
		permuted, err := lluv.FromRows(averaged.Schema(), rows)
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		_, err = Fill(skeleton, permuted)

		var alignErr *AlignmentError
		if !errors.As(err, &alignErr) {
			t.Fatalf("Expected AlignmentError, got %v", err)
		}
		if alignErr.Row != 1 {
			t.Errorf("Expected mismatch at row 1, got %d", alignErr.Row)
		}
	})

	t.Run("row count", func(t *testing.T) {
		short, err := lluv.FromRows(averaged.Schema(), [][]float64{averaged.Row(0)})
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		_, err = Fill(skeleton, short)

		var alignErr *AlignmentError
		if !errors.As(err, &alignErr) {
			t.Fatalf("Expected AlignmentError, got %v", err)
		}
		if alignErr.Row != -1 || alignErr.SkeletonRows != 3 || alignErr.AveragedRows != 1 {
			t.Errorf("Unexpected error details: %+v", alignErr)
		}
	})
}

func TestSkeletonMatchesAveragedOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var rows []map[string]float64
	for i := 0; i < 200; i++ {
		sprc := float64(rng.IntN(5) + 1)
		rows = append(rows, map[string]float64{
			lluv.SPRC: sprc,
			lluv.BEAR: float64(rng.IntN(36) * 5),
			lluv.RNGE: sprc * 1.5,
			lluv.VELO: rng.Float64()*100 - 50,
			lluv.MSR1: float64(rng.IntN(10)),
		})
	}
	table, err := qc.All(metricTable(t, rows...), qc.DefaultThresholds())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	skeleton, err := BuildSkeleton(table, TableType)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	averaged, err := qc.WeightedVelocities(table, 2, qc.WeightMusicPower)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if skeleton.Rows() != averaged.Rows() {
		t.Fatalf("Expected equal row counts, got %d and %d", skeleton.Rows(), averaged.Rows())
	}
	for i := 0; i < skeleton.Rows(); i++ {
		if value(t, skeleton, i, lluv.SPRC) != value(t, averaged, i, lluv.SPRC) ||
			value(t, skeleton, i, lluv.BEAR) != value(t, averaged, i, lluv.BEAR) {
			t.Fatalf("Row %d: skeleton and averaged cells differ", i)
		}
	}

	if _, err = Fill(skeleton, averaged); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestHeading(t *testing.T) {
	testCases := []struct {
		bearing  float64
		expected float64
	}{
		{0, 180},
		{90, 270},
		{180, 0},
		{270, 90},
		{359, 179},
		{-190, 350},
		{540, 0},
	}

	for _, tc := range testCases {
		if got := Heading(tc.bearing); got != tc.expected {
			t.Errorf("Heading(%v): expected %v, got %v", tc.bearing, tc.expected, got)
		}
	}
}
