package qc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/radialqc/internal/lluv"
)

// DefaultBearingSpread is the default half-width of the averaging window in
// degrees, i.e. velocities from a 3 degree window are averaged.
const DefaultBearingSpread = 1.0

// ErrUnknownWeightPolicy is returned for weight policy names other than MP, SNR3, SNR and NONE.
var ErrUnknownWeightPolicy = errors.New("unknown weight policy")

// AveragedSchema is the column layout of the table returned by WeightedVelocities.
var AveragedSchema = lluv.MustParseSchema("SPRC BEAR VELO ESPC MAXV MINV EDVC ERSC")

// WeightPolicy selects how velocities within an averaging window are weighted.
type WeightPolicy string

const (
	// WeightMusicPower weights by MUSIC signal power (MSP1, MDP1 or MDP2 by MSEL)
	// converted from dB to linear scale.
	WeightMusicPower WeightPolicy = "MP"

	// WeightMonopoleSNR weights by monopole SNR (MA3S).
	WeightMonopoleSNR WeightPolicy = "SNR3"

	// WeightNone averages without weights.
	WeightNone WeightPolicy = "NONE"
)

// ParseWeightPolicy parses a case-insensitive policy name. SNR is accepted as
// an alias of SNR3.
func ParseWeightPolicy(name string) (WeightPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "MP":
		return WeightMusicPower, nil
	case "SNR3", "SNR":
		return WeightMonopoleSNR, nil
	case "NONE":
		return WeightNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeightPolicy, name)
}

func (p WeightPolicy) String() string {
	return string(p)
}

// CellStats holds the statistics of the velocities found in an averaging window.
type CellStats struct {
	Velocity float64 // Weighted mean velocity
	StdDev   float64 // Population standard deviation, unweighted
	Max      float64
	Min      float64
	Count    int // Number of velocities averaged
}

// CellAverage is the averaging result for a single cell. Stats is nil when
// no good observation falls within the cell's bearing window.
type CellAverage struct {
	RangeCell float64
	Bearing   float64
	Stats     *CellStats
}

// AverageCells averages, for each unique good (SPRC, BEAR) cell of t, the
// velocities of all good rows in the same range cell whose bearing lies within
// [BEAR-bearingSpread, BEAR+bearingSpread]. Results follow UniqueGoodCells order.
func AverageCells(t *lluv.Table, bearingSpread float64, policy WeightPolicy) ([]CellAverage, error) {
	if math.IsNaN(bearingSpread) || bearingSpread < 0 {
		return nil, fmt.Errorf("bearing spread must not be negative: %v", bearingSpread)
	}

	policy, err := ParseWeightPolicy(string(policy))
	if err != nil {
		return nil, err
	}

	weigh, err := newWeigher(t, policy)
	if err != nil {
		return nil, err
	}

	idx, err := t.Schema().Indexes(lluv.SPRC, lluv.BEAR, lluv.VFLG, lluv.VELO)
	if err != nil {
		return nil, err
	}
	sprc, bear, vflg, velo := idx[0], idx[1], idx[2], idx[3]

	cells, err := UniqueGoodCells(t)
	if err != nil {
		return nil, err
	}

	// good rows grouped by range cell, in table order
	byRangeCell := make(map[float64][]int)
	for row := 0; row < t.Rows(); row++ {
		if t.At(row, vflg) == 0 {
			rc := t.At(row, sprc)
			byRangeCell[rc] = append(byRangeCell[rc], row)
		}
	}

	averages := make([]CellAverage, cells.Rows())
	for i := range averages {
		rangeCell, bearing := cells.At(i, 0), cells.At(i, 1)
		averages[i] = CellAverage{RangeCell: rangeCell, Bearing: bearing}

		var rows []int
		for _, row := range byRangeCell[rangeCell] {
			if b := t.At(row, bear); b >= bearing-bearingSpread && b <= bearing+bearingSpread {
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 {
			continue
		}

		velocities := make([]float64, len(rows))
		for k, row := range rows {
			velocities[k] = t.At(row, velo)
		}

		averages[i].Stats = cellStats(velocities, weigh(rows))
	}

	return averages, nil
}

// WeightedVelocities computes AverageCells and returns the result as a table
// with AveragedSchema. Cells without observations are left entirely NaN.
func WeightedVelocities(t *lluv.Table, bearingSpread float64, policy WeightPolicy) (*lluv.Table, error) {
	averages, err := AverageCells(t, bearingSpread, policy)
	if err != nil {
		return nil, err
	}
	return Tabulate(averages), nil
}

// Tabulate converts cell averages to a table with AveragedSchema.
func Tabulate(averages []CellAverage) *lluv.Table {
	out := lluv.NewTable(AveragedSchema, len(averages))
	for i, avg := range averages {
		if avg.Stats == nil {
			continue
		}

		// AveragedSchema column order
		values := []float64{
			avg.RangeCell,
			avg.Bearing,
			avg.Stats.Velocity,
			avg.Stats.StdDev,
			avg.Stats.Max,
			avg.Stats.Min,
			float64(avg.Stats.Count), // EDVC
			float64(avg.Stats.Count), // ERSC, same as EDVC here
		}
		for j, v := range values {
			out.Set(i, j, v)
		}
	}
	return out
}

func cellStats(velocities, weights []float64) *CellStats {
	_, std := stat.PopMeanStdDev(velocities, nil)

	s := CellStats{
		Velocity: stat.Mean(velocities, weights),
		StdDev:   std,
		Count:    len(velocities),
	}

	if floats.HasNaN(velocities) {
		s.Max, s.Min = math.NaN(), math.NaN()
	} else {
		s.Max, s.Min = floats.Max(velocities), floats.Min(velocities)
	}
	return &s
}

// weigher returns the weights for the given rows, nil for an unweighted mean.
type weigher func(rows []int) []float64

func newWeigher(t *lluv.Table, policy WeightPolicy) (weigher, error) {
	switch policy {
	case WeightMusicPower:
		cs, err := newChannelSelector(t.Schema(), signalPowerColumns)
		if err != nil {
			return nil, err
		}

		return func(rows []int) []float64 {
			weights := make([]float64, len(rows))
			for k, row := range rows {
				db, _ := cs.value(t, row) // NaN for unknown MSEL
				weights[k] = math.Pow(10, db/10)
			}
			return weights
		}, nil

	case WeightMonopoleSNR:
		snr, err := t.Schema().Index(lluv.MA3S)
		if err != nil {
			return nil, err
		}

		return func(rows []int) []float64 {
			weights := make([]float64, len(rows))
			for k, row := range rows {
				weights[k] = t.At(row, snr)
			}
			return weights
		}, nil

	case WeightNone:
		return func([]int) []float64 { return nil }, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownWeightPolicy, policy)
}
