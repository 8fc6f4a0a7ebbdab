package kernel

import "github.com/jordens/electrode/harmonic"

// The bare point kernel z/r^3 and all of its partial derivatives live in
// the term class
//
//	c * x^i y^j z^k / r^n
//
// which is closed under differentiation:
//
//	d/dx (x^i r^-n) = i x^(i-1) r^-n - n x^(i+1) r^-(n+2)
//
// so the derivative tables for every order and canonical component are
// generated here by term rewriting instead of transcribed by hand.

type term struct {
	c       float64
	i, j, k int // monomial exponents
	n       int // inverse power of r
}

type termKey struct{ i, j, k, n int }

// diffTerms differentiates a term sum along one axis and merges like terms.
func diffTerms(ts []term, axis int) []term {
	acc := map[termKey]float64{}
	add := func(c float64, i, j, k, n int) {
		if c != 0 {
			acc[termKey{i, j, k, n}] += c
		}
	}
	for _, t := range ts {
		e := [3]int{t.i, t.j, t.k}
		if e[axis] > 0 {
			lo := e
			lo[axis]--
			add(t.c*float64(e[axis]), lo[0], lo[1], lo[2], t.n)
		}
		hi := e
		hi[axis]++
		add(-t.c*float64(t.n), hi[0], hi[1], hi[2], t.n+2)
	}
	out := make([]term, 0, len(acc))
	for k, c := range acc {
		if c != 0 {
			out = append(out, term{c, k.i, k.j, k.k, k.n})
		}
	}
	return out
}

// pointTables[d][c] is the term sum for canonical component c of order d.
type pointTables [harmonic.MaxOrder + 1][]([]term)

func buildPointTables() *pointTables {
	var pt pointTables
	base := []term{{c: 1, i: 0, j: 0, k: 1, n: 3}} // z / r^3
	for d := 0; d <= harmonic.MaxOrder; d++ {
		pt[d] = make([][]term, harmonic.NumComponents(d))
		for c := range pt[d] {
			e := harmonic.Exponents(d, c)
			ts := base
			for axis := 0; axis < 3; axis++ {
				for m := 0; m < e[axis]; m++ {
					ts = diffTerms(ts, axis)
				}
			}
			pt[d][c] = ts
		}
	}
	return &pt
}

// maxExp bounds the monomial exponents (base degree 1 plus one per
// derivative) and maxRPow the inverse r power (3 plus two per derivative).
const (
	maxExp  = harmonic.MaxOrder + 1
	maxRPow = 3 + 2*harmonic.MaxOrder
)

// eval evaluates the term sum at relative coordinates (x,y,z) given
// precomputed coordinate powers and odd inverse-r powers.
func evalTerms(ts []term, xp, yp, zp *[maxExp + 1]float64, rp *[maxRPow + 1]float64) float64 {
	v := 0.0
	for _, t := range ts {
		v += t.c * xp[t.i] * yp[t.j] * zp[t.k] * rp[t.n]
	}
	return v
}
