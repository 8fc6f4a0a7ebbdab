// Package harmonic stores derivative tensors of harmonic potentials in
// their compact form and expands them to full Cartesian tensors.
//
// A fully symmetric rank-d derivative tensor of a potential obeying
// Laplace's equation has only 2d+1 independent components. The canonical
// set used throughout this module is, in order,
//
//	d/dx^(d-k) d/dy^k            for k = 0..d
//	d/dx^(d-1-k) d/dy^k d/dz     for k = 0..d-1
//
// i.e. all components with at most one z index. Components with two or
// more z indices follow from the trace rule zz -> -(xx+yy).
package harmonic

import (
	"errors"
	"fmt"
	"math"
)

// MaxOrder is the highest supported derivative order.
const MaxOrder = 5

// ErrUnsupportedOrder reports a derivative order outside 0..MaxOrder.
var ErrUnsupportedOrder = errors.New("unsupported derivative order")

// NumComponents returns the number of independent components, 2d+1.
func NumComponents(order int) int { return 2*order + 1 }

// CheckOrder validates a requested derivative order.
func CheckOrder(order int) error {
	if order < 0 || order > MaxOrder {
		return fmt.Errorf("%w: %d (supported 0..%d)", ErrUnsupportedOrder, order, MaxOrder)
	}
	return nil
}

// Exponents returns the (i,j,k) derivative multi-index of canonical
// component c at the given order.
func Exponents(order, c int) [3]int {
	if c <= order {
		return [3]int{order - c, c, 0}
	}
	k := c - order - 1
	return [3]int{order - 1 - k, k, 1}
}

// ComponentIndex is the inverse of Exponents for multi-indices with at
// most one z derivative.
func ComponentIndex(order int, e [3]int) int {
	if e[2] == 0 {
		return e[1]
	}
	return order + 1 + e[1]
}

// reduce resolves an arbitrary derivative multi-index to a linear
// combination of canonical components using the trace rule.
func reduce(order int, e [3]int, w float64, acc []float64) {
	if e[2] <= 1 {
		acc[ComponentIndex(order, e)] += w
		return
	}
	reduce(order, [3]int{e[0] + 2, e[1], e[2] - 2}, -w, acc)
	reduce(order, [3]int{e[0], e[1] + 2, e[2] - 2}, -w, acc)
}

// Expand produces the full symmetric Cartesian tensor of shape (3,...,3)
// (order times) as a flat row-major slice of length 3^order from the 2d+1
// compact components.
func Expand(order int, comps []float64) ([]float64, error) {
	if err := CheckOrder(order); err != nil {
		return nil, err
	}
	if len(comps) != NumComponents(order) {
		return nil, fmt.Errorf("order %d needs %d components, got %d",
			order, NumComponents(order), len(comps))
	}
	size := 1
	for i := 0; i < order; i++ {
		size *= 3
	}
	out := make([]float64, size)
	acc := make([]float64, NumComponents(order))
	for flat := 0; flat < size; flat++ {
		var e [3]int
		f := flat
		for i := 0; i < order; i++ {
			e[f%3]++
			f /= 3
		}
		for i := range acc {
			acc[i] = 0
		}
		reduce(order, e, 1, acc)
		v := 0.0
		for i, w := range acc {
			v += w * comps[i]
		}
		out[flat] = v
	}
	return out, nil
}

// Traces contracts the expanded tensor over its last two indices for every
// choice of the remaining indices, returning the 3^(order-2) contractions.
// All of them vanish for a harmonic field.
func Traces(order int, full []float64) ([]float64, error) {
	if order < 2 {
		return nil, fmt.Errorf("trace needs order >= 2, got %d", order)
	}
	size := 1
	for i := 0; i < order; i++ {
		size *= 3
	}
	if len(full) != size {
		return nil, fmt.Errorf("order %d tensor has %d entries, got %d", order, size, len(full))
	}
	size /= 9
	out := make([]float64, size)
	for i := 0; i < size; i++ {
		out[i] = full[i*9] + full[i*9+4] + full[i*9+8]
	}
	return out, nil
}

// MaxAbsTrace returns the largest contraction magnitude, a convenience for
// the Laplace invariant checks.
func MaxAbsTrace(order int, full []float64) (float64, error) {
	tr, err := Traces(order, full)
	if err != nil {
		return 0, err
	}
	m := 0.0
	for _, v := range tr {
		m = math.Max(m, math.Abs(v))
	}
	return m, nil
}
