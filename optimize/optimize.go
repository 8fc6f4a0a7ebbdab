// Package optimize solves for the per-pixel voltages of a PixelElectrode
// that realize a set of target field derivatives.
//
// The linear targets are met exactly through a minimum-norm particular
// solution (SVD pseudo-inverse); the remaining null-space freedom is then
// used to maximize the achieved field amplitude under the caller's
// inequality and equality constraints with a simplex solve.
package optimize

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/jordens/electrode/electrode"
)

var (
	// ErrUnderconstrained reports a solve without objective rows.
	ErrUnderconstrained = errors.New("underconstrained optimization: no objective rows")
	// ErrInfeasible reports that the convex solver found no acceptable
	// point; the wrapped solver diagnostic is preserved.
	ErrInfeasible = errors.New("infeasible constraints")
	// ErrIllConditioned reports a numerically unusable pseudo-inverse,
	// null-space projection or scale denominator.
	ErrIllConditioned = errors.New("numerical ill-conditioning")
)

// Problem accumulates the linear rows contributed by constraints. All rows
// are functionals of the unknown pixel-factor vector.
type Problem struct {
	e *electrode.PixelElectrode

	objRows  [][]float64
	objVals  []float64
	ineqRows [][]float64
	ineqVals []float64
	eqRows   [][]float64
	eqVals   []float64
}

// Electrode returns the electrode being solved for.
func (p *Problem) Electrode() *electrode.PixelElectrode { return p.e }

// N returns the number of unknown pixel factors.
func (p *Problem) N() int { return p.e.Len() }

func (p *Problem) checkRow(row []float64) error {
	if len(row) != p.N() {
		return fmt.Errorf("row length %d, want %d", len(row), p.N())
	}
	return nil
}

// AddObjective appends a target row: row . p should reproduce value.
func (p *Problem) AddObjective(row []float64, value float64) error {
	if err := p.checkRow(row); err != nil {
		return err
	}
	p.objRows = append(p.objRows, row)
	p.objVals = append(p.objVals, value)
	return nil
}

// AddLessEq appends the inequality row . p <= bound.
func (p *Problem) AddLessEq(row []float64, bound float64) error {
	if err := p.checkRow(row); err != nil {
		return err
	}
	p.ineqRows = append(p.ineqRows, row)
	p.ineqVals = append(p.ineqVals, bound)
	return nil
}

// AddEqual appends the equality row . p = value.
func (p *Problem) AddEqual(row []float64, value float64) error {
	if err := p.checkRow(row); err != nil {
		return err
	}
	p.eqRows = append(p.eqRows, row)
	p.eqVals = append(p.eqVals, value)
	return nil
}

// Constraint contributes rows to a Problem. It is a pure linear-algebra
// contract: the solver never inspects concrete constraint types.
type Constraint interface {
	Apply(p *Problem) error
}

// Result is the solved pixel-factor vector and the amplitude scale
// relating it back to the targets: B.Factors = Scale * b.
type Result struct {
	Factors []float64
	Scale   float64
}

// Apply writes the solved factors back into the electrode. This is the
// single sanctioned mutation of electrode state.
func (r *Result) Apply(e *electrode.PixelElectrode) error {
	return e.SetFactors(r.Factors)
}

// Optimizer holds the numerical tolerances of the solve.
type Optimizer struct {
	// RankTol is the relative singular-value cutoff for pseudo-inverse
	// and rank decisions.
	RankTol float64
	// LPTol is the simplex tolerance.
	LPTol float64
}

// New returns an Optimizer with default tolerances.
func New() *Optimizer {
	return &Optimizer{RankTol: 1e-10, LPTol: 1e-10}
}

// Solve runs the single-shot voltage solve for one electrode. It does not
// mutate the electrode; use Result.Apply for that.
func (o *Optimizer) Solve(e *electrode.PixelElectrode, cons ...Constraint) (*Result, error) {
	p := &Problem{e: e}
	for i, c := range cons {
		if err := c.Apply(p); err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	n := p.N()
	m := len(p.objRows)
	if m == 0 {
		return nil, ErrUnderconstrained
	}

	B := rowsToDense(p.objRows, n)
	b := p.objVals

	// minimum-norm particular solution g = pinv(B) b
	g, rankB, sMax, err := o.pinvApply(B, b)
	if err != nil {
		return nil, err
	}
	gg := floats.Dot(g, g)
	if gg <= 0 {
		return nil, fmt.Errorf("%w: particular solution vanishes (g.g = %g)", ErrIllConditioned, gg)
	}

	// null-space complement: B1 = B - b g^T / (g.g)
	B1 := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			B1.Set(i, j, B.At(i, j)-b[i]*g[j]/gg)
		}
	}

	// B1 annihilates exactly one row-space direction of B; verify the
	// rank instead of dropping a fixed row, and surface a violation.
	eqRows, rank1, err := o.nullComplementRows(B1, sMax)
	if err != nil {
		return nil, err
	}
	if rank1 != rankB-1 {
		return nil, fmt.Errorf("%w: null-space complement rank %d, want %d (objective rank %d)",
			ErrIllConditioned, rank1, rankB-1, rankB)
	}

	eq := make([][]float64, 0, len(eqRows)+len(p.eqRows))
	eqv := make([]float64, 0, len(eqRows)+len(p.eqRows))
	for _, r := range eqRows {
		eq = append(eq, r)
		eqv = append(eqv, 0)
	}
	eq = append(eq, p.eqRows...)
	eqv = append(eqv, p.eqVals...)

	// maximize g.p on the affine subspace of exact-target solutions
	sol, err := o.maximize(g, p.ineqRows, p.ineqVals, eq, eqv)
	if err != nil {
		return nil, err
	}
	return &Result{Factors: sol, Scale: floats.Dot(sol, g) / gg}, nil
}

func rowsToDense(rows [][]float64, n int) *mat.Dense {
	d := mat.NewDense(len(rows), n, nil)
	for i, r := range rows {
		d.SetRow(i, r)
	}
	return d
}

// pinvApply returns pinv(B) b, the numerical rank of B and its largest
// singular value.
func (o *Optimizer) pinvApply(B *mat.Dense, b []float64) ([]float64, int, float64, error) {
	var svd mat.SVD
	if !svd.Factorize(B, mat.SVDThin) {
		return nil, 0, 0, fmt.Errorf("%w: SVD of objective matrix failed", ErrIllConditioned)
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[0] == 0 {
		return nil, 0, 0, fmt.Errorf("%w: objective matrix is zero", ErrIllConditioned)
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)

	_, n := B.Dims()
	g := make([]float64, n)
	rank := 0
	for i, si := range s {
		if si <= o.RankTol*s[0] {
			continue
		}
		rank++
		// coefficient of right singular vector i
		c := 0.0
		for r := range b {
			c += U.At(r, i) * b[r]
		}
		c /= si
		for j := 0; j < n; j++ {
			g[j] += c * V.At(j, i)
		}
	}
	if rank == 0 {
		return nil, 0, 0, fmt.Errorf("%w: objective matrix has no usable singular values", ErrIllConditioned)
	}
	return g, rank, s[0], nil
}

// nullComplementRows returns the independent equality rows spanning the
// row space of B1 (its leading right singular vectors) and its rank. The
// cutoff is measured against the objective matrix scale, since B1 as a
// whole may be numerically zero.
func (o *Optimizer) nullComplementRows(B1 *mat.Dense, scale float64) ([][]float64, int, error) {
	var svd mat.SVD
	if !svd.Factorize(B1, mat.SVDThin) {
		return nil, 0, fmt.Errorf("%w: SVD of null-space complement failed", ErrIllConditioned)
	}
	s := svd.Values(nil)
	var V mat.Dense
	svd.VTo(&V)
	_, n := B1.Dims()

	var rows [][]float64
	for i, si := range s {
		if si <= o.RankTol*scale {
			continue
		}
		r := make([]float64, n)
		for j := 0; j < n; j++ {
			r[j] = V.At(j, i)
		}
		rows = append(rows, r)
	}
	return rows, len(rows), nil
}
