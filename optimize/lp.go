package optimize

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// maximize solves
//
//	max  g . p
//	s.t. G p <= h,  A p = v
//
// with free p by conversion to the standard form lp.Simplex expects:
// p = a - d with a, d >= 0 and one slack per inequality row.
func (o *Optimizer) maximize(g []float64, G [][]float64, h []float64, A [][]float64, v []float64) ([]float64, error) {
	n := len(g)
	mi := len(G)
	me := len(A)
	if mi+me == 0 {
		return nil, fmt.Errorf("%w: objective is unbounded (no constraints)", ErrInfeasible)
	}

	cols := 2*n + mi
	c := make([]float64, cols)
	for j := 0; j < n; j++ {
		c[j] = -g[j] // minimize -g.p
		c[n+j] = g[j]
	}

	std := mat.NewDense(mi+me, cols, nil)
	rhs := make([]float64, mi+me)
	for i, row := range G {
		for j, w := range row {
			std.Set(i, j, w)
			std.Set(i, n+j, -w)
		}
		std.Set(i, 2*n+i, 1)
		rhs[i] = h[i]
	}
	for i, row := range A {
		for j, w := range row {
			std.Set(mi+i, j, w)
			std.Set(mi+i, n+j, -w)
		}
		rhs[mi+i] = v[i]
	}

	_, x, err := lp.Simplex(c, std, rhs, o.LPTol, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	}
	p := make([]float64, n)
	for j := 0; j < n; j++ {
		p[j] = x[j] - x[n+j]
	}
	return p, nil
}
