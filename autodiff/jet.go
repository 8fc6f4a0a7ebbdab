// Package autodiff implements truncated trivariate Taylor arithmetic
// ("jets"). Evaluating a closed-form expression with jets seeded at a field
// point yields every partial derivative of the expression up to the space
// degree in one pass, which is how the potential kernels obtain their
// high-order derivative tensors without hand-transcribed formulas.
package autodiff

import (
	"fmt"
	"math"
)

// Space is the coefficient layout for jets of one total degree. Monomials
// x^i y^j z^k with i+j+k <= Degree are enumerated in graded order.
type Space struct {
	Degree int
	Mono   [][3]int
	lookup []int // (Degree+1)^3 flat exponent -> coefficient index
	fact   []float64
}

// NewSpace builds the jet space of the given total degree in 3 variables.
func NewSpace(degree int) *Space {
	s := &Space{Degree: degree}
	n := degree + 1
	s.lookup = make([]int, n*n*n)
	for i := range s.lookup {
		s.lookup[i] = -1
	}
	for d := 0; d <= degree; d++ {
		for i := d; i >= 0; i-- {
			for j := d - i; j >= 0; j-- {
				k := d - i - j
				s.lookup[(i*n+j)*n+k] = len(s.Mono)
				s.Mono = append(s.Mono, [3]int{i, j, k})
			}
		}
	}
	s.fact = make([]float64, degree+1)
	s.fact[0] = 1
	for i := 1; i <= degree; i++ {
		s.fact[i] = s.fact[i-1] * float64(i)
	}
	return s
}

// Len returns the number of coefficients per jet.
func (s *Space) Len() int { return len(s.Mono) }

func (s *Space) at(i, j, k int) int {
	if i+j+k > s.Degree {
		return -1
	}
	n := s.Degree + 1
	return s.lookup[(i*n+j)*n+k]
}

// Jet is a truncated Taylor series over a Space. The zeroth coefficient is
// the value at the expansion point.
type Jet struct {
	S *Space
	C []float64
}

// Const returns the constant jet v.
func (s *Space) Const(v float64) Jet {
	j := Jet{S: s, C: make([]float64, s.Len())}
	j.C[0] = v
	return j
}

// Var returns the jet of coordinate axis (0, 1 or 2) with value v at the
// expansion point.
func (s *Space) Var(axis int, v float64) Jet {
	j := s.Const(v)
	if s.Degree > 0 {
		var e [3]int
		e[axis] = 1
		j.C[s.at(e[0], e[1], e[2])] = 1
	}
	return j
}

// Value returns the zeroth-order coefficient.
func (a Jet) Value() float64 { return a.C[0] }

// Partial returns the partial derivative d^(i+j+k) / dx^i dy^j dz^k at the
// expansion point.
func (a Jet) Partial(i, j, k int) float64 {
	idx := a.S.at(i, j, k)
	if idx < 0 {
		panic(fmt.Sprintf("autodiff: partial (%d,%d,%d) exceeds space degree %d", i, j, k, a.S.Degree))
	}
	return a.C[idx] * a.S.fact[i] * a.S.fact[j] * a.S.fact[k]
}

func (a Jet) clone() Jet {
	c := make([]float64, len(a.C))
	copy(c, a.C)
	return Jet{S: a.S, C: c}
}

func (a Jet) Add(b Jet) Jet {
	out := a.clone()
	for i := range out.C {
		out.C[i] += b.C[i]
	}
	return out
}

func (a Jet) Sub(b Jet) Jet {
	out := a.clone()
	for i := range out.C {
		out.C[i] -= b.C[i]
	}
	return out
}

func (a Jet) Neg() Jet { return a.Scale(-1) }

func (a Jet) Scale(k float64) Jet {
	out := a.clone()
	for i := range out.C {
		out.C[i] *= k
	}
	return out
}

// AddScaled returns a + k*b.
func (a Jet) AddScaled(b Jet, k float64) Jet {
	out := a.clone()
	for i := range out.C {
		out.C[i] += k * b.C[i]
	}
	return out
}

// Mul multiplies two jets, truncating above the space degree.
func (a Jet) Mul(b Jet) Jet {
	s := a.S
	out := Jet{S: s, C: make([]float64, s.Len())}
	for ia, ma := range s.Mono {
		ca := a.C[ia]
		if ca == 0 {
			continue
		}
		da := ma[0] + ma[1] + ma[2]
		for ib, mb := range s.Mono {
			if da+mb[0]+mb[1]+mb[2] > s.Degree {
				break // monomials are graded, the rest only get larger
			}
			cb := b.C[ib]
			if cb == 0 {
				continue
			}
			out.C[s.at(ma[0]+mb[0], ma[1]+mb[1], ma[2]+mb[2])] += ca * cb
		}
	}
	return out
}

// Sq returns a*a.
func (a Jet) Sq() Jet { return a.Mul(a) }

// compose substitutes the zero-constant part of g into the univariate
// series t(h) = sum t[k] h^k.
func compose(t []float64, g Jet) Jet {
	s := g.S
	gh := g.clone()
	gh.C[0] = 0
	out := s.Const(t[0])
	pw := gh
	for k := 1; k < len(t); k++ {
		out = out.AddScaled(pw, t[k])
		if k+1 < len(t) {
			pw = pw.Mul(gh)
		}
	}
	return out
}

// Sqrt returns the square root jet. The value at the expansion point must
// be strictly positive.
func (a Jet) Sqrt() (Jet, error) {
	v0 := a.C[0]
	if v0 <= 0 {
		return Jet{}, fmt.Errorf("sqrt of non-positive jet value %g", v0)
	}
	m := a.S.Degree
	t := make([]float64, m+1)
	// binomial series: sqrt(v0+h) = sqrt(v0) * sum binom(1/2,k) (h/v0)^k
	t[0] = math.Sqrt(v0)
	b := 1.0
	vk := 1.0
	for k := 1; k <= m; k++ {
		b *= (0.5 - float64(k-1)) / float64(k)
		vk *= v0
		t[k] = t[0] * b / vk
	}
	return compose(t, a), nil
}

// Recip returns 1/a. The value at the expansion point must be nonzero.
func (a Jet) Recip() (Jet, error) {
	q0 := a.C[0]
	if q0 == 0 {
		return Jet{}, fmt.Errorf("reciprocal of zero-valued jet")
	}
	m := a.S.Degree
	t := make([]float64, m+1)
	t[0] = 1 / q0
	for k := 1; k <= m; k++ {
		t[k] = -t[k-1] / q0
	}
	return compose(t, a), nil
}

// Div returns a/b.
func (a Jet) Div(b Jet) (Jet, error) {
	r, err := b.Recip()
	if err != nil {
		return Jet{}, err
	}
	return a.Mul(r), nil
}

// atanSeries returns the univariate Taylor coefficients of atan about u0.
func atanSeries(u0 float64, m int) []float64 {
	t := make([]float64, m+1)
	t[0] = math.Atan(u0)
	if m == 0 {
		return t
	}
	// atan'(u0+h) = 1 / ((1+u0^2) + 2 u0 h + h^2), expanded by the
	// reciprocal recurrence, then integrated term by term.
	q := []float64{1 + u0*u0, 2 * u0, 1}
	w := make([]float64, m)
	w[0] = 1 / q[0]
	for k := 1; k < m; k++ {
		acc := 0.0
		for j := 1; j <= 2 && j <= k; j++ {
			acc += q[j] * w[k-j]
		}
		w[k] = -acc / q[0]
	}
	for k := 1; k <= m; k++ {
		t[k] = w[k-1] / float64(k)
	}
	return t
}

// Atan2 returns the jet of atan2(y, x). When both values vanish at the
// expansion point the zero jet is returned, matching the limit convention
// of the order-0 polygon kernel on the electrode plane.
func Atan2(y, x Jet) Jet {
	y0, x0 := y.C[0], x.C[0]
	if y0 == 0 && x0 == 0 {
		return y.S.Const(0)
	}
	theta0 := math.Atan2(y0, x0)
	var out Jet
	if math.Abs(x0) >= math.Abs(y0) {
		u, err := y.Div(x)
		if err != nil {
			panic(err) // unreachable: |x0| >= |y0| and not both zero
		}
		out = compose(atanSeries(u.C[0], y.S.Degree), u)
	} else {
		u, err := x.Div(y)
		if err != nil {
			panic(err)
		}
		out = compose(atanSeries(u.C[0], y.S.Degree), u).Neg()
	}
	out.C[0] = theta0
	return out
}
