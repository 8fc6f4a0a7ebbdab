package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/jordens/electrode/geometry"
	"github.com/jordens/electrode/harmonic"
)

// TestLaplaceInvariant: every expanded derivative tensor of order >= 2 is
// traceless away from the sources.
func TestLaplaceInvariant(t *testing.T) {
	pts := []geometry.Vec3{{0.3, -0.2, 0.8}, {1.5, 0.7, 0.4}, {-0.4, 0.1, 2}}
	for _, eng := range []Engine{Reference(), Fast()} {
		for _, x := range pts {
			ts, err := eng.Point(x, NewPoint(0.1, -0.3, 1.3), []int{2, 3, 4, 5})
			require.NoError(t, err)
			for _, tens := range ts {
				full, err := tens.Expand()
				require.NoError(t, err)
				m, err := harmonic.MaxAbsTrace(tens.Order, full)
				require.NoError(t, err)
				assert.Less(t, m, 1e-10, "%s point order %d at %v", eng.Name(), tens.Order, x)
			}

			ts, err = eng.Polygon(x, unitSquare(), []int{2, 3, 4, 5})
			require.NoError(t, err)
			for _, tens := range ts {
				full, err := tens.Expand()
				require.NoError(t, err)
				m, err := harmonic.MaxAbsTrace(tens.Order, full)
				require.NoError(t, err)
				assert.Less(t, m, 1e-10, "%s polygon order %d at %v", eng.Name(), tens.Order, x)
			}
		}
	}
}

// evalComp returns one canonical component of one derivative order at x.
func evalComp(t *testing.T, eng Engine, prim Primitive, x geometry.Vec3, order, comp int) float64 {
	t.Helper()
	ts, err := prim.Evaluate(eng, x, []int{order})
	require.NoError(t, err)
	return ts[0].C[comp]
}

// TestDerivativeConsistency: central finite differences of the order-d
// components reproduce the closed-form order-(d+1) components, d = 0..3.
func TestDerivativeConsistency(t *testing.T) {
	x0 := geometry.Vec3{0.31, -0.17, 0.73}
	h := 1e-5
	prims := []Primitive{NewPoint(0.2, 0.1, 0.9), unitSquare()}
	for _, eng := range []Engine{Reference(), Fast()} {
		for _, prim := range prims {
			for d := 0; d <= 3; d++ {
				ts, err := prim.Evaluate(eng, x0, []int{d + 1})
				require.NoError(t, err)
				for c := range ts[0].C {
					ex := harmonic.Exponents(d+1, c)
					axis := 0
					for ex[axis] == 0 {
						axis++
					}
					lo := ex
					lo[axis]--
					cLo := harmonic.ComponentIndex(d, [3]int{lo[0], lo[1], lo[2]})

					xp, xm := x0, x0
					xp[axis] += h
					xm[axis] -= h
					num := (evalComp(t, eng, prim, xp, d, cLo) -
						evalComp(t, eng, prim, xm, d, cLo)) / (2 * h)

					want := ts[0].C[c]
					tol := 1e-6 * math.Max(1, math.Abs(want))
					assert.InDelta(t, want, num, tol,
						"%s %T d=%d comp=%d", eng.Name(), prim, d+1, c)
				}
			}
		}
	}
}

// TestGradientAgainstGonumFD cross-checks the z gradient with gonum's
// finite-difference machinery on the scalar potential.
func TestGradientAgainstGonumFD(t *testing.T) {
	eng := Fast()
	poly := unitSquare()
	x0 := geometry.Vec3{0.4, 0.2, 0.9}

	f := func(z float64) float64 {
		return evalComp(t, eng, poly, geometry.Vec3{x0[0], x0[1], z}, 0, 0)
	}
	num := fd.Derivative(f, x0[2], &fd.Settings{Formula: fd.Central, Step: 1e-6})

	ts, err := eng.Polygon(x0, poly, []int{1})
	require.NoError(t, err)
	grad, err := ts[0].Expand()
	require.NoError(t, err)
	assert.InDelta(t, grad[2], num, 1e-7)
}

// TestSharedOrderEvaluation: asking for several orders at once matches
// asking for them one at a time.
func TestSharedOrderEvaluation(t *testing.T) {
	x := geometry.Vec3{0.2, 0.5, 1.1}
	for _, eng := range []Engine{Reference(), Fast()} {
		all, err := eng.Polygon(x, unitSquare(), []int{1, 2, 3})
		require.NoError(t, err)
		for i, d := range []int{1, 2, 3} {
			one, err := eng.Polygon(x, unitSquare(), []int{d})
			require.NoError(t, err)
			for c := range one[0].C {
				assert.InDelta(t, one[0].C[c], all[i].C[c], 1e-12*math.Max(1, math.Abs(one[0].C[c])),
					"%s order %d", eng.Name(), d)
			}
		}
	}
}
