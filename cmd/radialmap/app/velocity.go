package app

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultMaxVelocity = 50.0 // cm/s

	// Below this count the 95th percentile is no better than the maximum
	minimumSampleCount = 20

	boundsPercentile = 0.95
	boundsStep       = 5.0 // cm/s, bounds are rounded up to a multiple of this
)

// VelocityBounds represents the velocity range of the colour scale. The scale
// is symmetric around zero, from -Max to +Max.
type VelocityBounds struct {
	Max  float64 // Colour scale bound in cm/s
	Mean float64 // Mean radial velocity in cm/s
	Peak float64 // Largest absolute velocity in cm/s
}

func defaultVelocityBounds() VelocityBounds {
	return VelocityBounds{Max: defaultMaxVelocity}
}

// NewVelocityBounds derives the colour scale bound from the 95th percentile of
// the absolute velocities, rounded up to a multiple of 5 cm/s. NaN velocities
// are ignored. A non-nil override replaces the percentile bound.
func NewVelocityBounds(velocities []float64, override *float64) VelocityBounds {
	abs := make([]float64, 0, len(velocities))
	valid := make([]float64, 0, len(velocities))
	for _, v := range velocities {
		if math.IsNaN(v) {
			continue
		}
		valid = append(valid, v)
		abs = append(abs, math.Abs(v))
	}

	b := defaultVelocityBounds()
	if len(valid) > 0 {
		b.Mean = stat.Mean(valid, nil)
		b.Peak = floats.Max(abs)
	}

	switch {
	case override != nil:
		b.Max = *override

	case len(abs) >= minimumSampleCount:
		slices.Sort(abs)
		b.Max = roundUp(stat.Quantile(boundsPercentile, stat.Empirical, abs, nil))

	case len(abs) > 0:
		b.Max = roundUp(b.Peak)
	}

	if b.Max <= 0 {
		b.Max = boundsStep
	}
	return b
}

func roundUp(v float64) float64 {
	return math.Ceil(v/boundsStep) * boundsStep
}
