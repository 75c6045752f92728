package qc

import (
	"testing"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

var metricSchema = lluv.MustParseSchema(
	"LOND LATD VFLG MSEL MSR1 MDR1 MDR2 MSW1 MDW1 MDW2 MSP1 MDP1 MDP2 MA3S SPRC BEAR RNGE VELO")

// obs is a single radialmetric observation. Values not set in the map take
// defaults that pass every threshold test.
type obs map[string]float64

func newMetricTable(t *testing.T, observations ...obs) *lluv.Table {
	t.Helper()

	defaults := obs{
		lluv.LOND: -75.5, lluv.LATD: 35.2, lluv.VFLG: 0, lluv.MSEL: 1,
		lluv.MSR1: 10, lluv.MDR1: 10, lluv.MDR2: 10,
		lluv.MSW1: 20, lluv.MDW1: 20, lluv.MDW2: 20,
		lluv.MSP1: 0, lluv.MDP1: 0, lluv.MDP2: 0,
		lluv.MA3S: 10, lluv.SPRC: 1, lluv.BEAR: 0, lluv.RNGE: 1.5, lluv.VELO: 0,
	}

	rows := make([][]float64, len(observations))
	for i, o := range observations {
		row := make([]float64, metricSchema.Len())
		for _, name := range metricSchema.Names() {
			j, _ := metricSchema.Index(name)
			v, ok := o[name]
			if !ok {
				v = defaults[name]
			}
			row[j] = v
		}
		rows[i] = row
	}

	table, err := lluv.FromRows(metricSchema, rows)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return table
}

func column(t *testing.T, table *lluv.Table, name string) []float64 {
	t.Helper()

	j, err := table.Schema().Index(name)
	if err != nil {
		t.Fatalf("Failed to resolve column %s: %v", name, err)
	}
	return table.Column(j)
}
