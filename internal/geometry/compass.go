package geometry

import (
	"fmt"
	"math"
)

const degToRad = math.Pi / 180

// ShapeError is returned when magnitude and direction slices differ in length.
type ShapeError struct {
	Magnitudes int
	Directions int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("magnitude and direction must be the same size: %d != %d", e.Magnitudes, e.Directions)
}

// ToComponents converts a magnitude and a compass direction in degrees
// (clockwise from north, 0/360 pointing along +v) to x/y vector components.
func ToComponents(magnitude, direction float64) (u, v float64) {
	sin, cos := math.Sincos(direction * degToRad)
	return magnitude * sin, magnitude * cos
}

// ToComponentsSlice applies ToComponents element-wise. NaN inputs produce NaN outputs.
func ToComponentsSlice(magnitudes, directions []float64) (u, v []float64, err error) {
	if len(magnitudes) != len(directions) {
		return nil, nil, &ShapeError{Magnitudes: len(magnitudes), Directions: len(directions)}
	}

	u = make([]float64, len(magnitudes))
	v = make([]float64, len(magnitudes))
	for i := range magnitudes {
		u[i], v[i] = ToComponents(magnitudes[i], directions[i])
	}
	return u, v, nil
}
