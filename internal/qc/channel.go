package qc

import (
	"math"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// channelColumns lists the column holding a parameter for each MUSIC
// selection: MSEL 1 (single bearing), 2 and 3 (first and second of a dual bearing).
type channelColumns [3]string

var (
	peakPowerColumns      = channelColumns{lluv.MSR1, lluv.MDR1, lluv.MDR2}
	halfPowerWidthColumns = channelColumns{lluv.MSW1, lluv.MDW1, lluv.MDW2}
	signalPowerColumns    = channelColumns{lluv.MSP1, lluv.MDP1, lluv.MDP2}
)

// channelSelector picks the authoritative column of a row from its MSEL value.
type channelSelector struct {
	msel    int
	columns [3]int
}

func newChannelSelector(schema *lluv.Schema, columns channelColumns) (*channelSelector, error) {
	msel, err := schema.Index(lluv.MSEL)
	if err != nil {
		return nil, err
	}

	cs := channelSelector{msel: msel}
	for i, name := range columns {
		if cs.columns[i], err = schema.Index(name); err != nil {
			return nil, err
		}
	}
	return &cs, nil
}

// value returns the value of the column selected by the row's MSEL. It returns
// false when MSEL is not 1, 2 or 3.
func (cs *channelSelector) value(t *lluv.Table, row int) (float64, bool) {
	switch t.At(row, cs.msel) {
	case 1:
		return t.At(row, cs.columns[0]), true
	case 2:
		return t.At(row, cs.columns[1]), true
	case 3:
		return t.At(row, cs.columns[2]), true
	}
	return math.NaN(), false
}

// anyNaN reports whether any of the three channel columns of the row is NaN,
// regardless of which one MSEL selects.
func (cs *channelSelector) anyNaN(t *lluv.Table, row int) bool {
	for _, j := range cs.columns {
		if math.IsNaN(t.At(row, j)) {
			return true
		}
	}
	return false
}
