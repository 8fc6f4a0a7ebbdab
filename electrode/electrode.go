// Package electrode aggregates weighted source primitives into named
// electrodes and exposes voltage-scaled potentials, gradients, curvatures
// and the RF pseudopotential family.
package electrode

import (
	"errors"

	"github.com/jordens/electrode/geometry"
)

// ErrUninitialized reports evaluation of an electrode before its geometry
// or pixel factors were set up.
var ErrUninitialized = errors.New("electrode not initialized")

// Electrode is the common contract of all electrode kinds. Potential
// returns the requested derivative of the unit-voltage potential as the
// full Cartesian tensor (length 3^derivative, row-major).
type Electrode interface {
	Name() string
	Potential(x geometry.Vec3, derivative int) ([]float64, error)
	// Orientations returns +1/-1 per primitive patch; positive
	// orientation yields positive potential for positive voltage and z>0.
	Orientations() []float64
}
