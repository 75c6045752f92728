package qc

import (
	"fmt"
	"math"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// VFLG bits set by the threshold tests. Bit 0 is not used here.
const (
	FlagPeakPower      uint64 = 1 << 1 // DOA peak power below threshold
	FlagHalfPowerWidth uint64 = 1 << 2 // DOA half power width above threshold
	FlagMonopoleSNR    uint64 = 1 << 3 // Monopole SNR below threshold
)

const (
	DefaultPeakPowerThreshold      = 5.0  // dB
	DefaultHalfPowerWidthThreshold = 50.0 // degrees
	DefaultMonopoleSNRThreshold    = 5.0  // dB
)

// Thresholds holds the limits for the three threshold tests.
type Thresholds struct {
	PeakPower      float64 `yaml:"peakPower" json:"peakPower"`           // Minimum DOA peak power (dB)
	HalfPowerWidth float64 `yaml:"halfPowerWidth" json:"halfPowerWidth"` // Maximum DOA half power width (deg)
	MonopoleSNR    float64 `yaml:"monopoleSNR" json:"monopoleSNR"`       // Minimum monopole SNR (dB)
}

// DefaultThresholds returns 5 dB, 50 degrees and 5 dB.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PeakPower:      DefaultPeakPowerThreshold,
		HalfPowerWidth: DefaultHalfPowerWidthThreshold,
		MonopoleSNR:    DefaultMonopoleSNRThreshold,
	}
}

// PeakPower flags rows whose DOA peak power (MSR1, MDR1 or MDR2 depending on
// MSEL) is below threshold. A NaN in any of the three columns flags the row
// whatever MSEL selects. Only VFLG differs between the input and the returned table.
func PeakPower(t *lluv.Table, threshold float64) (*lluv.Table, error) {
	cs, err := newChannelSelector(t.Schema(), peakPowerColumns)
	if err != nil {
		return nil, fmt.Errorf("peak power test: %w", err)
	}

	return flagRows(t, FlagPeakPower, func(row int) bool {
		if cs.anyNaN(t, row) {
			return true
		}
		v, ok := cs.value(t, row)
		return ok && v < threshold
	})
}

// HalfPowerWidth flags rows whose DOA half power width (MSW1, MDW1 or MDW2
// depending on MSEL) is above threshold. A NaN in any of the three columns
// flags the row. Only VFLG differs between the input and the returned table.
func HalfPowerWidth(t *lluv.Table, threshold float64) (*lluv.Table, error) {
	cs, err := newChannelSelector(t.Schema(), halfPowerWidthColumns)
	if err != nil {
		return nil, fmt.Errorf("half power width test: %w", err)
	}

	return flagRows(t, FlagHalfPowerWidth, func(row int) bool {
		if cs.anyNaN(t, row) {
			return true
		}
		v, ok := cs.value(t, row)
		return ok && v > threshold
	})
}

// MonopoleSNR flags rows whose monopole SNR (MA3S) is below threshold,
// for every MSEL value.
func MonopoleSNR(t *lluv.Table, threshold float64) (*lluv.Table, error) {
	snr, err := t.Schema().Index(lluv.MA3S)
	if err != nil {
		return nil, fmt.Errorf("monopole SNR test: %w", err)
	}

	return flagRows(t, FlagMonopoleSNR, func(row int) bool {
		return t.At(row, snr) < threshold
	})
}

// All runs the peak power, half power width and monopole SNR tests in
// sequence, each adding its bit to the flags of the previous one.
func All(t *lluv.Table, th Thresholds) (*lluv.Table, error) {
	tests := []struct {
		test      func(*lluv.Table, float64) (*lluv.Table, error)
		threshold float64
	}{
		{PeakPower, th.PeakPower},
		{HalfPowerWidth, th.HalfPowerWidth},
		{MonopoleSNR, th.MonopoleSNR},
	}

	var err error
	for _, tc := range tests {
		if t, err = tc.test(t, tc.threshold); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// flagRows returns a copy of t with bit OR-ed into VFLG of every row for which bad
// returns true. A flag that is not a bit mask (NaN, negative, fractional or out
// of range) is left as is, it already marks the row as not good.
func flagRows(t *lluv.Table, bit uint64, bad func(row int) bool) (*lluv.Table, error) {
	vflg, err := t.Schema().Index(lluv.VFLG)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for row := 0; row < t.Rows(); row++ {
		if !bad(row) {
			continue
		}

		flag := t.At(row, vflg)
		if !isBitMask(flag) {
			continue
		}
		out.Set(row, vflg, float64(uint64(flag)|bit))
	}
	return out, nil
}

// isBitMask reports whether f holds a whole number that converts to uint64
// without loss.
func isBitMask(f float64) bool {
	return f >= 0 && f < 1<<63 && f == math.Trunc(f)
}

// GoodRows returns the number of rows with VFLG equal to 0.
func GoodRows(t *lluv.Table) (int, error) {
	vflg, err := t.Schema().Index(lluv.VFLG)
	if err != nil {
		return 0, err
	}

	var n int
	for row := 0; row < t.Rows(); row++ {
		if t.At(row, vflg) == 0 {
			n++
		}
	}
	return n, nil
}
